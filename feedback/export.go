package feedback

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Spreadsheet tools (Excel in particular) need the UTF-8 BOM and CRLF rows
// to open the file correctly. Both are part of the export contract, not a
// style choice.
const utf8BOM = "\uFEFF"

var csvHeader = []string{
	"ID", "Date Submitted", "Last Name", "Unit Number",
	"Topics", "Urgency", "Subject", "Comment", "Anonymous", "Copy PM",
}

// ExportCSV renders the log as a delimited file: fixed header row, one row
// per record, every value quoted with embedded quotes doubled. An empty log
// yields Count 0 and no content rather than an error.
func (s *Store) ExportCSV(ctx context.Context) (Export, error) {
	subs, err := s.load(ctx)
	if err != nil {
		return Export{}, err
	}
	if len(subs) == 0 {
		return Export{Count: 0}, nil
	}

	rows := make([]string, 0, len(subs)+1)
	rows = append(rows, strings.Join(csvHeader, ","))
	for _, sub := range subs {
		fields := []string{
			sub.ID,
			sub.SubmittedAt.Format("2006-01-02 15:04:05"),
			sub.LastName,
			sub.UnitNumber,
			sub.Topics,
			sub.Urgency,
			sub.Subject,
			sub.Comment,
			yesNo(sub.IsAnonymous),
			yesNo(sub.CopyPM),
		}
		quoted := make([]string, len(fields))
		for i, f := range fields {
			quoted[i] = quoteField(f)
		}
		rows = append(rows, strings.Join(quoted, ","))
	}

	return Export{
		Filename: fmt.Sprintf("essex-feedback-%s.csv", s.now().Format("2006-01-02")),
		Content:  []byte(utf8BOM + strings.Join(rows, "\r\n")),
		Count:    len(subs),
	}, nil
}

// ExportJSON renders the full log losslessly, pretty-printed, for backup
// and migration. Fields the delimited export drops (email, copy-me flag,
// origin button) are all present here.
func (s *Store) ExportJSON(ctx context.Context) (Export, error) {
	subs, err := s.load(ctx)
	if err != nil {
		return Export{}, err
	}
	if len(subs) == 0 {
		return Export{Count: 0}, nil
	}

	data, err := json.MarshalIndent(subs, "", "  ")
	if err != nil {
		return Export{}, newErrPersistenceFailure("encode backup", err)
	}

	return Export{
		Filename: fmt.Sprintf("essex-feedback-backup-%s.json", s.now().Format("2006-01-02")),
		Content:  data,
		Count:    len(subs),
	}, nil
}

func quoteField(v string) string {
	return `"` + strings.ReplaceAll(v, `"`, `""`) + `"`
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
