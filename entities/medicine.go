// Package entities holds the data shapes exchanged with the medicines backend.
package entities

// MedicineRecord is one item of the backend's medicines array.
// The backend is untrusted: any key may be missing or carry a value of the wrong type.
// Items that are not JSON objects are represented by a nil record.
type MedicineRecord map[string]any

// Field returns the raw value stored under key. A nil record has no fields.
func (m MedicineRecord) Field(key string) any {
	if m == nil {
		return nil
	}
	return m[key]
}

// CreateRequest is the form payload forwarded to POST /create
type CreateRequest struct {
	Name  string `json:"name"`
	Price string `json:"price"`
}

// CreateResult is the backend answer to a creation request
type CreateResult struct {
	OK         bool   `json:"ok"`
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
}
