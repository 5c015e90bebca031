package marketplace

import (
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/digitaltumana/storefront/internal/domain/preview"
)

// The backend is not strict about scalar types: identifiers and telephone
// numbers arrive as numbers or strings, money as numbers or numeric strings.
// The read helpers accept both and treat null as the zero value.

func readString(d *jx.Decoder) (string, error) {
	switch t := d.Next(); t {
	case jx.String:
		return d.Str()
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return "", err
		}
		return n.String(), nil
	case jx.Null:
		return "", d.Null()
	default:
		return "", errors.Errorf("expected string, got %s", t)
	}
}

func readDecimal(d *jx.Decoder) (decimal.Decimal, error) {
	switch t := d.Next(); t {
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return decimal.Zero, err
		}
		return decimal.NewFromString(n.String())
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return decimal.Zero, err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return decimal.Zero, nil
		}
		return decimal.NewFromString(s)
	case jx.Null:
		return decimal.Zero, d.Null()
	default:
		return decimal.Zero, errors.Errorf("expected number, got %s", t)
	}
}

func readInt(d *jx.Decoder) (int, error) {
	switch t := d.Next(); t {
	case jx.Number:
		return d.Int()
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return 0, err
		}
		return strconv.Atoi(strings.TrimSpace(s))
	case jx.Null:
		return 0, d.Null()
	default:
		return 0, errors.Errorf("expected integer, got %s", t)
	}
}

// decodePreview decodes the GET /cart-preview payload. Missing keys are left
// unset so that the caller's shape validation can report them.
func decodePreview(data []byte) (*preview.OrderPreview, error) {
	var p preview.OrderPreview
	d := jx.DecodeBytes(data)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "items":
			if d.Next() == jx.Null {
				return d.Null()
			}
			p.Items = make([]preview.LineItem, 0)
			return d.Arr(func(d *jx.Decoder) error {
				item, err := decodeLineItem(d)
				if err != nil {
					return errors.Wrapf(err, "item %d", len(p.Items))
				}
				p.Items = append(p.Items, item)
				return nil
			})
		case "deliveryTo":
			if d.Next() == jx.Null {
				return d.Null()
			}
			a, err := decodeAddress(d)
			if err != nil {
				return errors.Wrap(err, "deliveryTo")
			}
			p.DeliveryTo = &a
			return nil
		default:
			return d.Skip()
		}
	}); err != nil {
		return nil, errors.Wrap(err, "decode preview")
	}
	return &p, nil
}

func decodeLineItem(d *jx.Decoder) (preview.LineItem, error) {
	var item preview.LineItem
	err := d.Obj(func(d *jx.Decoder, key string) error {
		if d.Next() == jx.Null {
			return d.Null()
		}
		switch key {
		case "product":
			return decodeProduct(d, &item.Product)
		case "seller":
			return decodeSeller(d, &item.Seller)
		case "summary":
			return decodeSummary(d, &item.Summary)
		default:
			return d.Skip()
		}
	})
	return item, err
}

func decodeProduct(d *jx.Decoder, p *preview.Product) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "id", "_id":
			p.ID, err = readString(d)
		case "name":
			p.Name, err = readString(d)
		case "type":
			p.Type, err = readString(d)
		case "unit":
			p.Unit, err = readString(d)
		case "price":
			p.Price, err = readDecimal(d)
		case "quantity":
			p.Quantity, err = readInt(d)
		default:
			err = d.Skip()
		}
		return fieldErr(key, err)
	})
}

func decodeSeller(d *jx.Decoder, s *preview.Seller) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "id", "_id", "sellerId":
			s.ID, err = readString(d)
		case "storeName":
			s.StoreName, err = readString(d)
		case "telephone":
			s.Telephone, err = readString(d)
		case "region":
			s.Region, err = readString(d)
		case "email":
			s.Email, err = readString(d)
		default:
			err = d.Skip()
		}
		return fieldErr(key, err)
	})
}

func decodeSummary(d *jx.Decoder, s *preview.Summary) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "subtotal":
			s.Subtotal, err = readDecimal(d)
		case "total":
			s.Total, err = readDecimal(d)
		default:
			err = d.Skip()
		}
		return fieldErr(key, err)
	})
}

func decodeAddress(d *jx.Decoder) (preview.Address, error) {
	var a preview.Address
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "fullName":
			a.FullName, err = readString(d)
		case "phone":
			a.Phone, err = readString(d)
		case "region":
			a.Region, err = readString(d)
		case "province":
			a.Province, err = readString(d)
		case "city":
			a.City, err = readString(d)
		case "barangay":
			a.Barangay, err = readString(d)
		case "street":
			a.Street, err = readString(d)
		case "postalCode":
			a.PostalCode, err = readString(d)
		default:
			err = d.Skip()
		}
		return fieldErr(key, err)
	})
	return a, err
}

func fieldErr(key string, err error) error {
	if err != nil {
		return errors.Wrap(err, key)
	}
	return nil
}
