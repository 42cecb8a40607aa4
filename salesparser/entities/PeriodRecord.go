package entities

// PeriodRecord is the parsed sales of one pharmacy over one period.
// PeriodStart and PeriodEnd are calendar dates formatted as YYYY-MM-DD.
type PeriodRecord struct {
	PharmacyID    string        `json:"pharmacyId"`
	Year          int           `json:"year"`
	PeriodLabel   string        `json:"periodLabel"`
	PeriodStart   string        `json:"periodStart"`
	PeriodEnd     string        `json:"periodEnd"`
	Products      []ProductSale `json:"products"`
	TotalQuantity int           `json:"totalQuantity"`
	Departement   string        `json:"departement,omitempty"`
	Region        string        `json:"region,omitempty"`
}

// SumQuantities returns the freshly summed quantity of all products.
func (p PeriodRecord) SumQuantities() int {
	total := 0
	for _, product := range p.Products {
		total += product.Quantity
	}
	return total
}

// EffectiveTotal is TotalQuantity, or the summed quantity when TotalQuantity is unset.
func (p PeriodRecord) EffectiveTotal() int {
	if p.TotalQuantity > 0 {
		return p.TotalQuantity
	}
	return p.SumQuantities()
}
