package querybuilder

import (
	"fmt"
	"reflect"
	"strings"
)

// InsertModel renders a single-row INSERT from the `db` tags of a struct.
// Untagged and unexported fields are skipped.
func InsertModel(table string, model any, suffix string) (string, []any, error) {
	if strings.TrimSpace(table) == "" {
		return "", nil, fmt.Errorf("insert table is required")
	}
	columns, values, err := modelColumns(model)
	if err != nil {
		return "", nil, err
	}

	var w writer
	w.sql.WriteString("INSERT INTO ")
	w.sql.WriteString(table)
	w.sql.WriteString(" (")
	w.sql.WriteString(strings.Join(columns, ", "))
	w.sql.WriteString(") VALUES (")
	for i, value := range values {
		if i > 0 {
			w.sql.WriteString(", ")
		}
		w.bind(value)
	}
	w.sql.WriteString(")")
	w.suffix(strings.TrimSpace(suffix))
	return w.sql.String(), w.args, nil
}

func modelColumns(model any) ([]string, []any, error) {
	value := reflect.ValueOf(model)
	for value.Kind() == reflect.Pointer {
		if value.IsNil() {
			return nil, nil, fmt.Errorf("model cannot be nil")
		}
		value = value.Elem()
	}
	if value.Kind() != reflect.Struct {
		return nil, nil, fmt.Errorf("model must be a struct, got %s", value.Kind())
	}

	typ := value.Type()
	var (
		columns []string
		values  []any
	)
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}
		name, _, _ := strings.Cut(field.Tag.Get("db"), ",")
		name = strings.TrimSpace(name)
		if name == "" || name == "-" {
			continue
		}
		columns = append(columns, name)
		values = append(values, value.Field(i).Interface())
	}
	if len(columns) == 0 {
		return nil, nil, fmt.Errorf("model %s has no db columns", typ.Name())
	}
	return columns, values, nil
}
