package competition

import (
	"fmt"
	"strconv"
)

// Competition is one entry of the provider catalog.
type Competition struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	HasTable   bool   `json:"has_table"`
	HasScorers bool   `json:"has_scorers"`
}

func (c Competition) Validate() error {
	if c.ID <= 0 {
		return fmt.Errorf("competition id must be greater than zero")
	}
	return nil
}

// Label is used in log lines, e.g. `Serie A (35)`.
func (c Competition) Label() string {
	if c.Name == "" {
		return strconv.FormatInt(c.ID, 10)
	}
	return c.Name + " (" + strconv.FormatInt(c.ID, 10) + ")"
}
