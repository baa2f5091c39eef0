package scraper

import (
	"encoding/json"
)

// collection keys under which storefront APIs commonly nest their product
// arrays
var recordCollectionKeys = []string{
	"products", "items", "results", "data", "hits", "records",
}

var recordTitleKeys = []string{"title", "name", "productName", "displayName"}

var recordPriceKeys = []string{
	"price", "salePrice", "currentPrice", "sellPrice", "amount",
}

// ProductRecordsFromJSON scans a captured API response body for product-like
// objects: members of an array that carry both a title-ish and a price-ish
// field. It is a pure function over the body; callers decide which captured
// responses to feed it.
func ProductRecordsFromJSON(data []byte) []map[string]interface{} {
	var root interface{}
	if err := json.Unmarshal(data, &root); err != nil {
		return nil
	}

	switch v := root.(type) {
	case []interface{}:
		return productObjects(v)
	case map[string]interface{}:
		return recordsFromObject(v, 0)
	}
	return nil
}

// recordsFromObject looks for product arrays under known collection keys,
// descending a couple of levels to cover envelopes like {"data":{"products":[...]}}
func recordsFromObject(obj map[string]interface{}, depth int) []map[string]interface{} {
	if depth > 2 {
		return nil
	}
	for _, key := range recordCollectionKeys {
		switch nested := obj[key].(type) {
		case []interface{}:
			if records := productObjects(nested); len(records) > 0 {
				return records
			}
		case map[string]interface{}:
			if records := recordsFromObject(nested, depth+1); len(records) > 0 {
				return records
			}
		}
	}
	return nil
}

func productObjects(arr []interface{}) []map[string]interface{} {
	var records []map[string]interface{}
	for _, item := range arr {
		obj, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		if isProductObject(obj) {
			records = append(records, obj)
		}
	}
	return records
}

func isProductObject(obj map[string]interface{}) bool {
	hasTitle := false
	for _, key := range recordTitleKeys {
		if s, ok := obj[key].(string); ok && s != "" {
			hasTitle = true
			break
		}
	}
	if !hasTitle {
		return false
	}
	for _, key := range recordPriceKeys {
		switch v := obj[key].(type) {
		case float64:
			if v > 0 {
				return true
			}
		case string:
			if ParsePrice(v) > 0 {
				return true
			}
		}
	}
	return false
}
