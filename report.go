package quartermaster

import (
	"bufio"
	"context"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

//go:embed reports/*.rpt
var builtinReports embed.FS

var ErrEmptyReport = errors.New("report has no query")

// Report is a named read-only query. A .rpt file starts with
// "-- title:" and "-- description:" comment lines; the rest is SQL.
type Report struct {
	Name        string
	Title       string
	Description string
	SQL         string
}

// Querier runs read-only SQL; *Store implements it.
type Querier interface {
	Query(ctx context.Context, query string, args ...any) (*ResultSet, error)
}

func ParseReport(name string, r io.Reader) (Report, error) {
	rep := Report{Name: name}
	var body strings.Builder
	header := true
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		if header {
			trimmed := strings.TrimSpace(line)
			if strings.HasPrefix(trimmed, "--") {
				key, value, ok := strings.Cut(strings.TrimSpace(strings.TrimPrefix(trimmed, "--")), ":")
				if ok {
					switch strings.ToLower(strings.TrimSpace(key)) {
					case "title":
						rep.Title = strings.TrimSpace(value)
					case "description":
						rep.Description = strings.TrimSpace(value)
					}
				}
				continue
			}
			if trimmed == "" {
				continue
			}
			header = false
		}
		body.WriteString(line)
		body.WriteByte('\n')
	}
	if err := sc.Err(); err != nil {
		return Report{}, fmt.Errorf("read report %s: %w", name, err)
	}
	rep.SQL = strings.TrimSpace(body.String())
	if rep.SQL == "" {
		return Report{}, fmt.Errorf("report %s: %w", name, ErrEmptyReport)
	}
	if rep.Title == "" {
		rep.Title = name
	}
	return rep, nil
}

// LoadReport reads a .rpt file; the report is named after the file.
func LoadReport(file string) (Report, error) {
	f, err := os.Open(file)
	if err != nil {
		return Report{}, fmt.Errorf("open report: %w", err)
	}
	defer f.Close()
	return ParseReport(strings.TrimSuffix(filepath.Base(file), ReportExt), f)
}

// BuiltinReports returns the reports shipped with the program, by name.
func BuiltinReports() ([]Report, error) {
	entries, err := fs.ReadDir(builtinReports, "reports")
	if err != nil {
		return nil, err
	}
	var reports []Report
	for _, e := range entries {
		f, err := builtinReports.Open(path.Join("reports", e.Name()))
		if err != nil {
			return nil, err
		}
		rep, err := ParseReport(strings.TrimSuffix(e.Name(), ReportExt), f)
		f.Close()
		if err != nil {
			return nil, err
		}
		reports = append(reports, rep)
	}
	sort.Slice(reports, func(i, j int) bool { return reports[i].Name < reports[j].Name })
	return reports, nil
}

func (r Report) Run(ctx context.Context, q Querier) (*ResultSet, error) {
	rs, err := q.Query(ctx, r.SQL)
	if err != nil {
		return nil, fmt.Errorf("report %s: %w", r.Name, err)
	}
	return rs, nil
}
