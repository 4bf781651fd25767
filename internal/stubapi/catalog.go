package stubapi

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"storefront-client/internal/domain"
)

// LoadCatalogCSV reads catalog rows and adds them to the store. Columns:
// name, category, stock, weight, price, image; the first row is the
// header. Rows with a blank name are skipped.
func LoadCatalogCSV(r io.Reader, st *Store) (int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // rows may have trailing commas

	headers, err := reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)

	loaded := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return loaded, fmt.Errorf("read row: %w", err)
		}
		product := parseRow(record, index)
		if product == nil {
			continue
		}
		st.AddProduct(*product)
		loaded++
	}
	return loaded, nil
}

func headerIndex(headers []string) map[string]int {
	index := make(map[string]int, len(headers))
	for i, h := range headers {
		index[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return index
}

func parseRow(record []string, index map[string]int) *domain.Product {
	field := func(name string) string {
		i, ok := index[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	name := field("name")
	if name == "" {
		return nil
	}
	stock, _ := strconv.Atoi(field("stock"))
	weight, _ := strconv.Atoi(field("weight"))
	price, _ := strconv.ParseInt(field("price"), 10, 64)
	return &domain.Product{
		Name:         name,
		Description:  field("description"),
		Category:     field("category"),
		Stock:        stock,
		WeightGrams:  weight,
		UnitPrice:    price,
		PrimaryImage: field("image"),
	}
}
