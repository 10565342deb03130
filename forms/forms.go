// Package forms validates the storefront and admin forms. Problems come back
// as a field → message map that callers render next to the inputs.
package forms

import (
	"regexp"
	"sort"
	"strings"

	"leviro/models"
)

// Errors maps a form field to its message. A non-empty Errors is an error.
type Errors map[string]string

func (e Errors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e[k])
	}
	return strings.Join(parts, "; ")
}

// Err returns e as an error, or nil when e is empty.
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

// Districts are the delivery districts checkout accepts.
var Districts = []string{
	"Dhaka", "Chattogram", "Sylhet", "Rajshahi", "Khulna",
	"Barishal", "Rangpur", "Mymensingh", "Comilla", "Gazipur",
	"Narayanganj", "Cox's Bazar", "Bogura", "Jessore", "Dinajpur",
}

var (
	mobileRe   = regexp.MustCompile(`^(\+880|0)?1[3-9]\d{8}$`)
	whitespace = regexp.MustCompile(`\s`)
)

// ValidMobile reports whether s is a Bangladeshi mobile number. Whitespace is
// ignored.
func ValidMobile(s string) bool {
	return mobileRe.MatchString(whitespace.ReplaceAllString(s, ""))
}

func validDistrict(d string) bool {
	for _, v := range Districts {
		if v == d {
			return true
		}
	}
	return false
}

// Checkout validates the delivery form and fills in the payment default.
func Checkout(c *models.Customer) Errors {
	errs := Errors{}
	c.Name = strings.TrimSpace(c.Name)
	c.Thana = strings.TrimSpace(c.Thana)
	c.Address = strings.TrimSpace(c.Address)

	if c.Name == "" {
		errs["name"] = "Name is required"
	}
	switch {
	case strings.TrimSpace(c.Mobile) == "":
		errs["mobile"] = "Mobile number is required"
	case !ValidMobile(c.Mobile):
		errs["mobile"] = "Enter a valid Bangladeshi mobile number"
	}
	if !validDistrict(c.District) {
		errs["district"] = "Please select a district"
	}
	if c.Thana == "" {
		errs["thana"] = "Thana/Upazila is required"
	}
	if c.Address == "" {
		errs["address"] = "Full address is required"
	}
	if c.PaymentMethod == "" {
		c.PaymentMethod = models.PaymentCOD
	}
	return errs
}

// Product validates a new product and puts its sizes in display order.
func Product(d *models.ProductDraft) Errors {
	errs := Errors{}
	d.Name = strings.TrimSpace(d.Name)
	d.Description = strings.TrimSpace(d.Description)

	if d.Name == "" {
		errs["name"] = "Product name is required"
	}
	if !d.Price.IsPositive() {
		errs["price"] = "Valid price is required"
	}
	if d.Description == "" {
		errs["description"] = "Description is required"
	}
	if d.Image == "" {
		errs["image"] = "Product image is required"
	}
	d.Sizes = models.SortSizes(d.Sizes)
	if len(d.Sizes) == 0 {
		errs["sizes"] = "Select at least one size"
	}
	return errs
}

// ProductPatch validates the fields an edit sets.
func ProductPatch(p *models.ProductPatch) Errors {
	errs := Errors{}
	if p.Name != nil {
		if *p.Name = strings.TrimSpace(*p.Name); *p.Name == "" {
			errs["name"] = "Product name is required"
		}
	}
	if p.Price != nil && !p.Price.IsPositive() {
		errs["price"] = "Valid price is required"
	}
	if p.Description != nil {
		if *p.Description = strings.TrimSpace(*p.Description); *p.Description == "" {
			errs["description"] = "Description is required"
		}
	}
	if p.Image != nil && *p.Image == "" {
		errs["image"] = "Product image is required"
	}
	if p.Sizes != nil {
		if p.Sizes = models.SortSizes(p.Sizes); len(p.Sizes) == 0 {
			errs["sizes"] = "Select at least one size"
		}
	}
	return errs
}

// MinPasswordLength is the shortest admin password accepted.
const MinPasswordLength = 4

// NewCredentials checks the new half of a credentials change. Checking the
// current credentials is up to the caller, which owns them.
func NewCredentials(c *models.CredentialsChange) Errors {
	errs := Errors{}
	c.NewUsername = strings.TrimSpace(c.NewUsername)
	switch {
	case c.NewUsername == "":
		errs["newUsername"] = "New username is required"
	case strings.TrimSpace(c.NewPassword) == "":
		errs["newPassword"] = "New password is required"
	case len(c.NewPassword) < MinPasswordLength:
		errs["newPassword"] = "Password must be at least 4 characters"
	case c.NewPassword != c.ConfirmPassword:
		errs["confirmPassword"] = "New passwords do not match"
	}
	return errs
}
