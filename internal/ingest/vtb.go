package ingest

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"folio/internal/domain"
)

// ParseVTBReport extracts dividends, commissions and cash transfers from a
// VTB broker report.
func ParseVTBReport(content []byte, portfolioID, brokerID int64) ([]domain.CashMovement, error) {
	root, err := parseTree(content)
	if err != nil {
		return nil, err
	}
	records, err := root.path("Tablix_b4", "DDS_place_Collection", "DDS_place", "Подробности16_Collection")
	if err != nil {
		return nil, err
	}

	out := []domain.CashMovement{}
	for i := range records.Nodes {
		record := &records.Nodes[i]
		operType := strings.TrimSpace(record.attr("operation_type"))
		comment := strings.ToLower(record.attr("notes1"))

		switch operType {
		case "Зачисление денежных средств":
			m, err := parseVTBRecord(record, portfolioID, brokerID, comment)
			if err != nil {
				return nil, err
			}
			switch {
			case containsAny(comment, dividendWords):
				m.Category = domain.CashDividend
			case comment == "" || strings.Contains(comment, "перечисление денежных средств"):
				m.Category = domain.CashOperating
			default:
				return nil, fmt.Errorf("unclassified deposit: %q", comment)
			}
			out = append(out, m)
		case "Вознаграждение Брокера":
			m, err := parseVTBRecord(record, portfolioID, brokerID, comment)
			if err != nil {
				return nil, err
			}
			m.Category = domain.CashCommission
			m.Amount = m.Amount.Abs()
			out = append(out, m)
		}
	}
	return out, nil
}

func parseVTBRecord(record *node, portfolioID, brokerID int64, comment string) (domain.CashMovement, error) {
	date := record.attr("debt_type4")
	t, err := time.Parse(reportTimeLayout, date)
	if err != nil {
		return domain.CashMovement{}, fmt.Errorf("bad record date %q: %w", date, err)
	}
	cur, err := domain.ParseCurrency(record.attr("decree_amount2"))
	if err != nil {
		return domain.CashMovement{}, err
	}
	volume := record.attr("debt_date4")
	amount, err := strconv.ParseFloat(volume, 64)
	if err != nil {
		return domain.CashMovement{}, fmt.Errorf("bad volume %q: %w", volume, err)
	}
	return domain.CashMovement{
		Date:        domain.Day(t),
		Currency:    cur,
		Amount:      decimal.NewFromFloat(amount),
		Comment:     comment,
		PortfolioID: portfolioID,
		BrokerID:    brokerID,
	}, nil
}
