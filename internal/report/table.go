package report

import (
	"fmt"
	"html/template"
	"strings"

	"permitgen/internal/aggregate"
)

// QuarterlyTable renders the yearly-by-quarter pivot as an HTML table:
// one row per year, columns Q1..Q4 plus the year total. The returned
// markup is pre-escaped (numbers and fixed headers only) and safe to
// inject into a report context.
func QuarterlyTable(rows []aggregate.YearRow) template.HTML {
	var b strings.Builder
	b.WriteString("<table class=\"quarterly-table\">\n")
	b.WriteString("<thead>\n<tr>\n<th>Jaar</th><th>Q1</th><th>Q2</th><th>Q3</th><th>Q4</th><th>Totaal</th>\n</tr>\n</thead>\n")
	b.WriteString("<tbody>\n")

	for _, row := range rows {
		fmt.Fprintf(&b, "<tr>\n<td><strong>%d</strong></td>\n", row.Year)
		for _, q := range row.Quarters {
			fmt.Fprintf(&b, "<td>%s</td>\n", numberFormat(q))
		}
		fmt.Fprintf(&b, "<td><strong>%s</strong></td>\n</tr>\n", numberFormat(row.Total))
	}

	b.WriteString("</tbody>\n</table>\n")
	return template.HTML(b.String())
}
