package entities

// ProductSale is one product line of a pharmacy POS extract.
type ProductSale struct {
	Code        string `json:"code"`
	Designation string `json:"designation"`
	Quantity    int    `json:"quantity"`
}
