package cartevents

const (
	TopicName       = "cart"
	billIssuedName  = TopicName + ".bill.issued"
	cartClearedName = TopicName + ".cleared"
)

type BillIssued struct {
	BillUID       string
	BillNumber    string
	PaymentMethod string
	Total         string
}

func (e BillIssued) GetEventTypeName() string {
	return billIssuedName
}

func (e BillIssued) GetAggregateName() string {
	return e.BillUID
}

// CartCleared is published once the cart has been reset after a paid bill.
type CartCleared struct {
	BillUID string
}

func (e CartCleared) GetEventTypeName() string {
	return cartClearedName
}

func (e CartCleared) GetAggregateName() string {
	return e.BillUID
}
