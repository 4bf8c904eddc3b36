package main

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// The column order is a wire contract with HR's spreadsheets: a schema
// change requires a header migration, never silent column drift.
const (
	OrdersCSVHeader  = "nome;empresa;almoco;salada;sobremesa;porcao;carneExtra;observacoes;data_hora"
	SummaryCSVHeader = "nome;quantidade_pedidos;carneextra_total"
)

var fieldSanitizer = strings.NewReplacer(";", " ", "\n", " ", "\r", " ")

// sanitizeField keeps the semicolon-joined format parseable. The fields
// are free text from a web form, so embedded separators do occur.
func sanitizeField(s string) string {
	return fieldSanitizer.Replace(s)
}

// OrdersCSV renders orders as semicolon-separated text with the fixed
// header. Timestamps are RFC 3339 in UTC, consistent within the file.
func OrdersCSV(orders []Order) string {
	var b strings.Builder
	b.WriteString(OrdersCSVHeader)
	b.WriteByte('\n')
	for _, o := range orders {
		fields := []string{
			sanitizeField(o.Nome),
			sanitizeField(o.Empresa),
			sanitizeField(o.Almoco),
			sanitizeField(o.Salada),
			sanitizeField(o.Sobremesa),
			sanitizeField(o.Porcao),
			sanitizeField(o.CarneExtra),
			sanitizeField(o.Observacoes),
			o.SubmittedAt.UTC().Format(time.RFC3339),
		}
		b.WriteString(strings.Join(fields, ";"))
		b.WriteByte('\n')
	}
	return b.String()
}

// CSVRowCount counts data rows, excluding the header line.
func CSVRowCount(text string) int {
	rows := 0
	for i, line := range strings.Split(text, "\n") {
		if i == 0 || strings.TrimSpace(line) == "" {
			continue
		}
		rows++
	}
	return rows
}

// parseCarneExtra accepts only all-digit values; anything else (blank,
// "sim", "1x", negative) counts as zero. Totals stay exact integers.
func parseCarneExtra(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

// Summarize groups orders by submitter name. Output is sorted by
// descending order count; ties keep the order the names first appeared
// in the input.
func Summarize(orders []Order) []SummaryRow {
	index := make(map[string]int)
	var rows []SummaryRow
	for _, o := range orders {
		i, seen := index[o.Nome]
		if !seen {
			i = len(rows)
			index[o.Nome] = i
			rows = append(rows, SummaryRow{Nome: o.Nome})
		}
		rows[i].OrderCount++
		rows[i].CarneExtraTotal += parseCarneExtra(o.CarneExtra)
	}

	sort.SliceStable(rows, func(a, b int) bool {
		return rows[a].OrderCount > rows[b].OrderCount
	})
	return rows
}

// SummaryCSV renders summary rows with the fixed summary header.
func SummaryCSV(rows []SummaryRow) string {
	var b strings.Builder
	b.WriteString(SummaryCSVHeader)
	b.WriteByte('\n')
	for _, r := range rows {
		b.WriteString(sanitizeField(r.Nome))
		b.WriteByte(';')
		b.WriteString(strconv.Itoa(r.OrderCount))
		b.WriteByte(';')
		b.WriteString(strconv.Itoa(r.CarneExtraTotal))
		b.WriteByte('\n')
	}
	return b.String()
}
