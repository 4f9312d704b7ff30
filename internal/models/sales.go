package models

import (
	"errors"
	"fmt"
)

type Period string

const (
	PeriodRecession    Period = "Recession"
	PeriodNonRecession Period = "Non-Recession"
)

var ErrInvalidRecessionFlag = errors.New("recession flag must be 0 or 1")

// PeriodFor maps the binary recession flag onto its period label.
func PeriodFor(flag int) (Period, error) {
	switch flag {
	case 1:
		return PeriodRecession, nil
	case 0:
		return PeriodNonRecession, nil
	default:
		return "", fmt.Errorf("%w, got %d", ErrInvalidRecessionFlag, flag)
	}
}

type SalesRecord struct {
	Year                   int     `json:"year"`
	Recession              int     `json:"recession"`
	AutomobileSales        float64 `json:"automobile_sales"`
	AdvertisingExpenditure float64 `json:"advertising_expenditure"`
	VehicleType            string  `json:"vehicle_type"`
	Price                  float64 `json:"price"`
	Period                 Period  `json:"period"`
}

func (r SalesRecord) InRecession() bool {
	return r.Recession == 1
}

type ReportSelection string

const (
	ReportRecession ReportSelection = "recession"
	ReportYearly    ReportSelection = "yearly"
)

var ErrUnknownSelection = errors.New("unknown report selection")

// ParseReportSelection accepts only the two known report values, matched
// exactly. Anything else is rejected instead of falling back to the yearly
// report.
func ParseReportSelection(value string) (ReportSelection, error) {
	switch ReportSelection(value) {
	case ReportRecession:
		return ReportRecession, nil
	case ReportYearly:
		return ReportYearly, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownSelection, value)
	}
}

func ReportSelections() []ReportSelection {
	return []ReportSelection{ReportRecession, ReportYearly}
}
