package cart

import (
	"strconv"
	"time"

	"github.com/MarcGrol/restaurantcart/lib/mytime"
	"github.com/MarcGrol/restaurantcart/lib/myuuid"
)

const billTimestampLayout = "2/1/2006, 3:04:05 pm"

type billFormatter struct {
	nower    mytime.Nower
	uuider   myuuid.UUIDer
	location *time.Location
	profile  Profile
}

func newBillFormatter(nower mytime.Nower, uuider myuuid.UUIDer, location *time.Location, profile Profile) billFormatter {
	if location == nil {
		location = time.UTC
	}
	return billFormatter{
		nower:    nower,
		uuider:   uuider,
		location: location,
		profile:  profile,
	}
}

// format projects the given snapshot into a bill; an empty method means the bill was printed without payment.
func (f billFormatter) format(items []LineItem, method PaymentMethod) Bill {
	now := f.nower.Now()

	lines := make([]BillLine, 0, len(items))
	for _, i := range items {
		lines = append(lines, BillLine{
			Name:      i.Name,
			Quantity:  i.Quantity,
			UnitPrice: i.UnitPrice,
			LineTotal: i.LineTotal(),
		})
	}

	subtotal := calculateSubtotal(items)
	tax := Tax(subtotal)

	return Bill{
		UID:           f.uuider.Create(),
		BillNumber:    composeBillNumber(now),
		Timestamp:     now.In(f.location).Format(billTimestampLayout),
		CreatedAt:     now,
		PaymentMethod: method,
		Lines:         lines,
		Subtotal:      subtotal,
		Tax:           tax,
		Total:         subtotal.Add(tax),
		Restaurant:    f.profile,
	}
}

// composeBillNumber is a display label only: consecutive bills within the same millisecond share it.
func composeBillNumber(t time.Time) string {
	millis := strconv.FormatInt(t.UnixMilli(), 10)
	if len(millis) > 6 {
		millis = millis[len(millis)-6:]
	}
	return "BILL-" + millis
}
