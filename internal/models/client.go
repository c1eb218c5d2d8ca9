package models

// Client is a billed party. Invoices reference it by id; deleting a client
// leaves those references dangling.
type Client struct {
	Base
	Name       string  `json:"name"`
	Email      *string `json:"email,omitempty"`
	Phone      *string `json:"phone,omitempty"`
	Address    *string `json:"address,omitempty"`
	NTN        *string `json:"ntn,omitempty"`
	GST        *string `json:"gst,omitempty"`
	VendorCode *string `json:"vendor_code,omitempty"`
}

// ClientUpdate is a partial update: nil fields are left untouched.
type ClientUpdate struct {
	Name       *string `json:"name,omitempty"`
	Email      *string `json:"email,omitempty"`
	Phone      *string `json:"phone,omitempty"`
	Address    *string `json:"address,omitempty"`
	NTN        *string `json:"ntn,omitempty"`
	GST        *string `json:"gst,omitempty"`
	VendorCode *string `json:"vendor_code,omitempty"`
}

// Apply merges the supplied fields into c.
func (p ClientUpdate) Apply(c *Client) {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Email != nil {
		c.Email = p.Email
	}
	if p.Phone != nil {
		c.Phone = p.Phone
	}
	if p.Address != nil {
		c.Address = p.Address
	}
	if p.NTN != nil {
		c.NTN = p.NTN
	}
	if p.GST != nil {
		c.GST = p.GST
	}
	if p.VendorCode != nil {
		c.VendorCode = p.VendorCode
	}
}
