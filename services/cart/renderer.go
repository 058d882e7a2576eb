package cart

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"

	"github.com/MarcGrol/restaurantcart/lib/myerrors"
	"github.com/MarcGrol/restaurantcart/lib/mystore"
)

// BillRenderer captures a bill for display and printing.
type BillRenderer interface {
	Render(c context.Context, bill Bill) error
}

//go:embed templates
var templateFolder embed.FS
var (
	billPageTemplate *template.Template
)

func init() {
	billPageTemplate = template.Must(template.ParseFS(templateFolder, "templates/bill.html"))
}

// htmlBillRenderer renders the printable page once and archives it by bill uid.
type htmlBillRenderer struct {
	bills mystore.Store[RenderedBill]
}

func NewHTMLBillRenderer(bills mystore.Store[RenderedBill]) *htmlBillRenderer {
	return &htmlBillRenderer{
		bills: bills,
	}
}

func (r *htmlBillRenderer) Render(c context.Context, bill Bill) error {
	buf := bytes.Buffer{}
	err := billPageTemplate.Execute(&buf, bill)
	if err != nil {
		return myerrors.NewInternalError(fmt.Errorf("error rendering bill %s: %w", bill.BillNumber, err))
	}

	err = r.bills.Put(c, bill.UID, RenderedBill{
		UID:        bill.UID,
		BillNumber: bill.BillNumber,
		CreatedAt:  bill.CreatedAt,
		HTML:       buf.String(),
	})
	if err != nil {
		return myerrors.NewInternalError(fmt.Errorf("error storing bill %s: %w", bill.BillNumber, err))
	}

	return nil
}

func (r *htmlBillRenderer) Get(c context.Context, billUID string) (RenderedBill, error) {
	rendered, found, err := r.bills.Get(c, billUID)
	if err != nil {
		return RenderedBill{}, myerrors.NewInternalError(err)
	}
	if !found {
		return RenderedBill{}, myerrors.NewNotFoundError(fmt.Errorf("bill with uid %s not found", billUID))
	}
	return rendered, nil
}
