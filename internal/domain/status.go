package domain

import (
	"fmt"
	"strings"
)

// RiskStatus classifies projected 7-day stock-out exposure.
type RiskStatus string

const (
	RiskSafe    RiskStatus = "Safe"
	RiskWarning RiskStatus = "Warning"
	RiskDanger  RiskStatus = "Danger"
)

// DatasetKind identifies which sheet shape an upload carries.
type DatasetKind string

const (
	KindSales   DatasetKind = "sales"
	KindMaster  DatasetKind = "master"
	KindInbound DatasetKind = "inbound"
)

// ParseDatasetKind returns the kind for a label (case-insensitive).
func ParseDatasetKind(label string) (DatasetKind, error) {
	switch DatasetKind(strings.ToLower(strings.TrimSpace(label))) {
	case KindSales:
		return KindSales, nil
	case KindMaster:
		return KindMaster, nil
	case KindInbound:
		return KindInbound, nil
	}
	return "", fmt.Errorf("unknown dataset kind %q", label)
}

// DetectKind guesses the dataset kind from a file name. Anything that is
// not recognisably a master or inbound sheet is treated as sales.
func DetectKind(filename string) DatasetKind {
	name := strings.ToLower(filename)
	switch {
	case strings.Contains(name, "master"), strings.Contains(name, "마스터"), strings.Contains(name, "상품정보"):
		return KindMaster
	case strings.Contains(name, "inbound"), strings.Contains(name, "입고"):
		return KindInbound
	}
	return KindSales
}
