package ingest

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"folio/internal/domain"
)

const reportTimeLayout = "2006-01-02T15:04:05"

var dividendWords = []string{"купон", "dividend", "дивиденд"}

var alfaTransferWords = []string{
	"списание по поручению клиента",
	"между рынками",
	"из ао \"альфа-банк\"",
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// ParseAlfaReport extracts dividends, commissions and cash transfers from an
// Alfa broker report.
func ParseAlfaReport(content []byte, portfolioID, brokerID int64) ([]domain.CashMovement, error) {
	root, err := parseTree(content)
	if err != nil {
		return nil, err
	}
	days, err := root.path("Trades2", "Report", "Tablix1", "settlement_date_Collection")
	if err != nil {
		return nil, err
	}

	out := []domain.CashMovement{}
	for i := range days.Nodes {
		records, err := days.Nodes[i].child("rn_Collection")
		if err != nil {
			return nil, err
		}
		for j := range records.Nodes {
			record := &records.Nodes[j]
			operNode, err := record.child("oper_type")
			if err != nil {
				return nil, err
			}
			operType := strings.TrimSpace(operNode.attr("oper_type"))
			commentNode, err := operNode.child("comment")
			if err != nil {
				return nil, err
			}
			comment := strings.ToLower(commentNode.attr("comment"))

			switch operType {
			case "Перевод":
				m, err := parseAlfaRecord(record, portfolioID, brokerID, comment)
				if err != nil {
					return nil, err
				}
				switch {
				case containsAny(comment, dividendWords):
					m.Category = domain.CashDividend
				case containsAny(comment, alfaTransferWords):
					m.Category = domain.CashOperating
				default:
					return nil, fmt.Errorf("unclassified transfer: %q", comment)
				}
				out = append(out, m)
			case "Комиссия":
				m, err := parseAlfaRecord(record, portfolioID, brokerID, comment)
				if err != nil {
					return nil, err
				}
				m.Category = domain.CashCommission
				m.Amount = m.Amount.Abs()
				out = append(out, m)
			}
		}
	}
	return out, nil
}

// parseAlfaRecord digs the dated money volume out of the record's nested
// per-currency collection; the first entry with a volume wins.
func parseAlfaRecord(record *node, portfolioID, brokerID int64, comment string) (domain.CashMovement, error) {
	date := record.attr("last_update")
	t, err := time.Parse(reportTimeLayout, date)
	if err != nil {
		return domain.CashMovement{}, fmt.Errorf("bad record date %q: %w", date, err)
	}

	curs, err := record.path("oper_type", "comment",
		"money_volume_begin1_Collection", "money_volume_begin1", "p_code_Collection")
	if err != nil {
		return domain.CashMovement{}, err
	}
	for i := range curs.Nodes {
		pcode, err := curs.Nodes[i].child("p_code")
		if err != nil {
			continue
		}
		volume := pcode.attr("volume")
		if volume == "" {
			continue
		}
		amount, err := strconv.ParseFloat(volume, 64)
		if err != nil {
			return domain.CashMovement{}, fmt.Errorf("bad volume %q: %w", volume, err)
		}
		cur, err := domain.ParseCurrency(pcode.attr("p_code"))
		if err != nil {
			return domain.CashMovement{}, err
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
	return domain.CashMovement{}, fmt.Errorf("record %q carries no money volume", comment)
}
