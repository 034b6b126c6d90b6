// Package cart implements storefront carts with naive summation totals.
package cart

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/allsale/allsale-api/internal/catalog"
)

var (
	ErrCartNotFound    = errors.New("cart not found")
	ErrVariantNotFound = errors.New("variant not found")
)

type Line struct {
	ID       string `json:"id"`
	Quantity int    `json:"quantity"`
	Cost     struct {
		TotalAmount catalog.Money `json:"totalAmount"`
	} `json:"cost"`
	Merchandise struct {
		ID              string                   `json:"id"`
		Title           string                   `json:"title"`
		SelectedOptions []catalog.SelectedOption `json:"selectedOptions"`
		Product         struct {
			ID            string         `json:"id"`
			Handle        string         `json:"handle"`
			Title         string         `json:"title"`
			FeaturedImage *catalog.Image `json:"featuredImage"`
		} `json:"product"`
	} `json:"merchandise"`
}

type Cart struct {
	ID            string `json:"id"`
	Lines         []Line `json:"lines"`
	TotalQuantity int    `json:"totalQuantity"`
	Cost          struct {
		SubtotalAmount catalog.Money `json:"subtotalAmount"`
		TotalAmount    catalog.Money `json:"totalAmount"`
		TotalTaxAmount catalog.Money `json:"totalTaxAmount"`
	} `json:"cost"`
	CheckoutURL string `json:"checkoutUrl"`
}

type Repo struct {
	DB          *pgxpool.Pool
	FrontendURL string
}

func newID(prefix string) string {
	ts := strconv.FormatInt(time.Now().UnixMilli(), 36)
	random := strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
	return prefix + "-" + ts + "-" + random
}

func (r *Repo) Create(ctx context.Context) (*Cart, error) {
	id := newID("cart")
	if _, err := r.DB.Exec(ctx, `INSERT INTO carts (id) VALUES ($1)`, id); err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}

// Get assembles the full cart: lines joined with variant and product info,
// totals by naive summation (tax stays zero).
func (r *Repo) Get(ctx context.Context, cartID string) (*Cart, error) {
	var exists bool
	if err := r.DB.QueryRow(ctx, `SELECT true FROM carts WHERE id=$1`, cartID).Scan(&exists); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCartNotFound
		}
		return nil, err
	}

	rows, err := r.DB.Query(ctx, `
		SELECT ci.id, ci.quantity, ci.variant_id,
		       v.title, v.price_amount, v.price_currency, v.selected_options,
		       p.id, p.handle, p.title,
		       (SELECT url FROM product_images i WHERE i.product_id = p.id ORDER BY position LIMIT 1),
		       (SELECT alt_text FROM product_images i WHERE i.product_id = p.id ORDER BY position LIMIT 1)
		FROM cart_items ci
		JOIN product_variants v ON ci.variant_id = v.id
		JOIN products p ON v.product_id = p.id
		WHERE ci.cart_id=$1
		ORDER BY ci.created_at`, cartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	c := &Cart{ID: cartID, Lines: []Line{}}
	var subtotal float64
	currency := "XOF"
	for rows.Next() {
		var ln Line
		var priceAmount, priceCurrency string
		var imgURL, imgAlt *string
		err := rows.Scan(&ln.ID, &ln.Quantity, &ln.Merchandise.ID,
			&ln.Merchandise.Title, &priceAmount, &priceCurrency, &ln.Merchandise.SelectedOptions,
			&ln.Merchandise.Product.ID, &ln.Merchandise.Product.Handle, &ln.Merchandise.Product.Title,
			&imgURL, &imgAlt)
		if err != nil {
			return nil, err
		}
		if ln.Merchandise.SelectedOptions == nil {
			ln.Merchandise.SelectedOptions = []catalog.SelectedOption{}
		}
		if imgURL != nil {
			ln.Merchandise.Product.FeaturedImage = &catalog.Image{URL: *imgURL, AltText: imgAlt}
		}
		price, _ := strconv.ParseFloat(priceAmount, 64)
		lineTotal := price * float64(ln.Quantity)
		subtotal += lineTotal
		currency = priceCurrency
		c.TotalQuantity += ln.Quantity
		ln.Cost.TotalAmount = catalog.Money{
			Amount:       strconv.FormatFloat(lineTotal, 'f', -1, 64),
			CurrencyCode: priceCurrency,
		}
		c.Lines = append(c.Lines, ln)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	amount := strconv.FormatFloat(subtotal, 'f', -1, 64)
	c.Cost.SubtotalAmount = catalog.Money{Amount: amount, CurrencyCode: currency}
	c.Cost.TotalAmount = catalog.Money{Amount: amount, CurrencyCode: currency}
	c.Cost.TotalTaxAmount = catalog.Money{Amount: "0", CurrencyCode: currency}
	c.CheckoutURL = strings.TrimRight(r.FrontendURL, "/") + "/checkout"
	return c, nil
}

func (r *Repo) AddItem(ctx context.Context, cartID, variantID string, quantity int) (*Cart, error) {
	if quantity <= 0 {
		quantity = 1
	}
	var exists bool
	if err := r.DB.QueryRow(ctx, `SELECT true FROM carts WHERE id=$1`, cartID).Scan(&exists); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCartNotFound
		}
		return nil, err
	}
	if err := r.DB.QueryRow(ctx, `SELECT true FROM product_variants WHERE id=$1`, variantID).Scan(&exists); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrVariantNotFound
		}
		return nil, err
	}

	var itemID string
	err := r.DB.QueryRow(ctx,
		`SELECT id FROM cart_items WHERE cart_id=$1 AND variant_id=$2`, cartID, variantID,
	).Scan(&itemID)
	switch {
	case err == nil:
		_, err = r.DB.Exec(ctx,
			`UPDATE cart_items SET quantity = quantity + $2 WHERE id=$1`, itemID, quantity)
	case errors.Is(err, pgx.ErrNoRows):
		_, err = r.DB.Exec(ctx,
			`INSERT INTO cart_items (id, cart_id, variant_id, quantity) VALUES ($1,$2,$3,$4)`,
			newID("item"), cartID, variantID, quantity)
	}
	if err != nil {
		return nil, err
	}
	if err := r.touch(ctx, cartID); err != nil {
		return nil, err
	}
	return r.Get(ctx, cartID)
}

// UpdateItem sets an item's quantity; zero or less removes the item.
func (r *Repo) UpdateItem(ctx context.Context, cartID, itemID string, quantity int) (*Cart, error) {
	var err error
	if quantity <= 0 {
		_, err = r.DB.Exec(ctx,
			`DELETE FROM cart_items WHERE id=$1 AND cart_id=$2`, itemID, cartID)
	} else {
		_, err = r.DB.Exec(ctx,
			`UPDATE cart_items SET quantity=$3 WHERE id=$1 AND cart_id=$2`, itemID, cartID, quantity)
	}
	if err != nil {
		return nil, err
	}
	if err := r.touch(ctx, cartID); err != nil {
		return nil, err
	}
	return r.Get(ctx, cartID)
}

func (r *Repo) RemoveItem(ctx context.Context, cartID, itemID string) (*Cart, error) {
	if _, err := r.DB.Exec(ctx,
		`DELETE FROM cart_items WHERE id=$1 AND cart_id=$2`, itemID, cartID); err != nil {
		return nil, err
	}
	if err := r.touch(ctx, cartID); err != nil {
		return nil, err
	}
	return r.Get(ctx, cartID)
}

func (r *Repo) touch(ctx context.Context, cartID string) error {
	_, err := r.DB.Exec(ctx, `UPDATE carts SET updated_at=now() WHERE id=$1`, cartID)
	return err
}
