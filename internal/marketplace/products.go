package marketplace

import (
	"context"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/digitaltumana/storefront/internal/domain/catalog"
	"github.com/digitaltumana/storefront/internal/session"
)

// Products lists the marketplace catalog.
func (c *Client) Products(ctx context.Context, s *session.Session) ([]catalog.Product, error) {
	resp, err := c.do(ctx, s, http.MethodGet, "products", nil)
	if err != nil {
		return nil, err
	}
	if err := checkStatus(resp); err != nil {
		return nil, err
	}
	return decodeProducts(resp.body)
}

func decodeProducts(data []byte) ([]catalog.Product, error) {
	products := make([]catalog.Product, 0)
	d := jx.DecodeBytes(data)
	if err := d.Arr(func(d *jx.Decoder) error {
		var p catalog.Product
		if err := d.Obj(func(d *jx.Decoder, key string) error {
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
			case "quantity", "stock":
				p.Stock, err = readInt(d)
			case "storeName":
				p.StoreName, err = readString(d)
			case "region":
				p.Region, err = readString(d)
			default:
				err = d.Skip()
			}
			return fieldErr(key, err)
		}); err != nil {
			return errors.Wrapf(err, "product %d", len(products))
		}
		products = append(products, p)
		return nil
	}); err != nil {
		return nil, errors.Wrap(err, "decode products")
	}
	return products, nil
}
