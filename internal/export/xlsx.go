// Package export renders dashboard summaries and entity statements as
// XLSX workbooks for download.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"harvestbook/internal/core"
)

// WriteDashboardXLSX writes a two-sheet workbook: business summary and
// the per-side breakdowns.
func WriteDashboardXLSX(w io.Writer, s core.Summary) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Summary"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	rows := [][]any{
		{"Section", "Metric", "Amount"},
		{"Harvesting", "Total Revenue", s.Harvesting.TotalRevenue.String()},
		{"Harvesting", "To Pay To Owners", s.Harvesting.TotalToPayToOwners.String()},
		{"Harvesting", "Profit", s.Harvesting.Profit.String()},
		{"Harvesting", "Discounts From Owners", s.Harvesting.DiscountsFromOwners.String()},
		{"Harvesting", "Discounts To Farmers", s.Harvesting.DiscountsToFarmers.String()},
		{"Harvesting", "Jobs", s.Harvesting.Jobs},
		{"Dealer Rentals", "Total Revenue", s.DealerRentals.TotalRevenue.String()},
		{"Dealer Rentals", "Owner Cost", s.DealerRentals.TotalOwnerCost.String()},
		{"Dealer Rentals", "Profit", s.DealerRentals.TotalProfit.String()},
		{"Dealer Rentals", "Rentals", s.DealerRentals.Rentals},
		{"Combined", "Total Revenue", s.Combined.TotalRevenue.String()},
		{"Combined", "Total Profit", s.Combined.TotalProfit.String()},
	}
	if err := writeRows(f, sheet, rows); err != nil {
		return err
	}

	f.SetColWidth(sheet, "A", "A", 16)
	f.SetColWidth(sheet, "B", "B", 24)
	f.SetColWidth(sheet, "C", "C", 14)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// WriteFarmerStatementXLSX writes one farmer's job history and current
// position.
func WriteFarmerStatementXLSX(w io.Writer, farmer core.Farmer, balance core.FarmerBalance, jobs []core.HarvestingJob) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Statement"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	rows := [][]any{
		{"Farmer", farmer.Name},
		{"Village", farmer.Village},
		{"Total", balance.Total.String()},
		{"Paid", balance.Paid.String()},
		{"Balance", balance.Balance.String()},
		{"Discounts Received", balance.DiscountsReceived.String()},
		{},
		{"Date", "Hours", "Rate", "Amount", "Advance", "Discount", "Status"},
	}
	for _, j := range jobs {
		if j.FarmerID != farmer.ID {
			continue
		}
		rows = append(rows, []any{
			j.Date.Format("2006-01-02"),
			j.Hours.Decimal(),
			j.Rate.String(),
			j.Revenue().String(),
			j.AdvanceFromFarmer.String(),
			j.DiscountToFarmer.String(),
			string(j.Status),
		})
	}
	if err := writeRows(f, sheet, rows); err != nil {
		return err
	}

	f.SetColWidth(sheet, "A", "A", 14)
	f.SetColWidth(sheet, "B", "G", 12)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		for j, v := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				return fmt.Errorf("cell name: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("set cell %s: %w", cell, err)
			}
		}
	}
	return nil
}
