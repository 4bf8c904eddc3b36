package main

import (
	"strings"
	"testing"
	"time"
)

func sampleOrders() []Order {
	base := time.Date(2026, 3, 3, 11, 30, 0, 0, time.UTC)
	return []Order{
		{
			Nome: "Maria", Empresa: "Metalburgo", Almoco: "Frango", Salada: "Mista",
			Sobremesa: "Pudim", Porcao: "Grande", CarneExtra: "2", Observacoes: "sem cebola",
			SubmittedAt: base,
		},
		{
			Nome: "Joao", Empresa: "Metalburgo", Almoco: "Carne", Salada: "Verde",
			Sobremesa: "Fruta", Porcao: "Media", CarneExtra: "",
			SubmittedAt: base.Add(10 * time.Minute),
		},
	}
}

func TestOrdersCSVHeaderAndRows(t *testing.T) {
	text := OrdersCSV(sampleOrders())
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")

	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d lines", len(lines))
	}
	if lines[0] != OrdersCSVHeader {
		t.Fatalf("unexpected header: %q", lines[0])
	}
	want := "Maria;Metalburgo;Frango;Mista;Pudim;Grande;2;sem cebola;2026-03-03T11:30:00Z"
	if lines[1] != want {
		t.Fatalf("unexpected row:\n got %q\nwant %q", lines[1], want)
	}
}

func TestOrdersCSVRoundTripsFieldValues(t *testing.T) {
	orders := sampleOrders()
	text := OrdersCSV(orders)
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")

	for i, o := range orders {
		fields := strings.Split(lines[i+1], ";")
		if len(fields) != 9 {
			t.Fatalf("row %d: expected 9 fields, got %d", i, len(fields))
		}
		got := []string{o.Nome, o.Empresa, o.Almoco, o.Salada, o.Sobremesa, o.Porcao, o.CarneExtra, o.Observacoes}
		for j, f := range got {
			if fields[j] != f {
				t.Fatalf("row %d field %d: got %q want %q", i, j, fields[j], f)
			}
		}
		ts, err := time.Parse(time.RFC3339, fields[8])
		if err != nil {
			t.Fatalf("row %d: bad timestamp %q: %v", i, fields[8], err)
		}
		if !ts.Equal(o.SubmittedAt) {
			t.Fatalf("row %d: timestamp got %s want %s", i, ts, o.SubmittedAt)
		}
	}
}

func TestOrdersCSVSanitizesEmbeddedDelimiters(t *testing.T) {
	orders := []Order{{
		Nome: "Ana", Almoco: "Peixe; grelhado", Salada: "Mista", Sobremesa: "Gelatina",
		Porcao: "Pequena", Observacoes: "entregar\nna portaria",
		SubmittedAt: time.Date(2026, 3, 3, 12, 0, 0, 0, time.UTC),
	}}
	text := OrdersCSV(orders)
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")

	if len(lines) != 2 {
		t.Fatalf("embedded newline broke row structure: %d lines", len(lines))
	}
	if fields := strings.Split(lines[1], ";"); len(fields) != 9 {
		t.Fatalf("embedded separator broke field structure: %d fields", len(fields))
	}
}

func TestCSVRowCount(t *testing.T) {
	if n := CSVRowCount(OrdersCSV(nil)); n != 0 {
		t.Fatalf("empty report: expected 0 rows, got %d", n)
	}
	if n := CSVRowCount(OrdersCSV(sampleOrders())); n != 2 {
		t.Fatalf("expected 2 rows, got %d", n)
	}
}

func TestParseCarneExtra(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"2", 2},
		{" 10 ", 10},
		{"", 0},
		{"sim", 0},
		{"1x", 0},
		{"-1", 0},
		{"2.5", 0},
	}
	for _, tc := range tests {
		if got := parseCarneExtra(tc.in); got != tc.want {
			t.Fatalf("parseCarneExtra(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestSummarizeGroupsAndSorts(t *testing.T) {
	base := time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC)
	mk := func(nome, extra string, offset time.Duration) Order {
		return Order{Nome: nome, Almoco: "x", Salada: "x", Sobremesa: "x", Porcao: "x",
			CarneExtra: extra, SubmittedAt: base.Add(offset)}
	}
	orders := []Order{
		mk("Maria", "1", 0),
		mk("Joao", "abc", time.Minute), // non-numeric contributes 0
		mk("Maria", "2", 2*time.Minute),
		mk("Pedro", "", 3*time.Minute),
		mk("Joao", "3", 4*time.Minute),
		mk("Maria", "", 5*time.Minute),
	}

	rows := Summarize(orders)

	if len(rows) != 3 {
		t.Fatalf("expected 3 summary rows, got %d", len(rows))
	}
	if rows[0].Nome != "Maria" || rows[0].OrderCount != 3 || rows[0].CarneExtraTotal != 3 {
		t.Fatalf("unexpected first row: %+v", rows[0])
	}
	if rows[1].Nome != "Joao" || rows[1].OrderCount != 2 || rows[1].CarneExtraTotal != 3 {
		t.Fatalf("unexpected second row: %+v", rows[1])
	}
	if rows[2].Nome != "Pedro" || rows[2].OrderCount != 1 || rows[2].CarneExtraTotal != 0 {
		t.Fatalf("unexpected third row: %+v", rows[2])
	}
}

func TestSummarizeTiesKeepFirstSeenOrder(t *testing.T) {
	base := time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC)
	orders := []Order{
		{Nome: "Bruno", SubmittedAt: base},
		{Nome: "Alice", SubmittedAt: base.Add(time.Minute)},
		{Nome: "Bruno", SubmittedAt: base.Add(2 * time.Minute)},
		{Nome: "Alice", SubmittedAt: base.Add(3 * time.Minute)},
	}

	rows := Summarize(orders)

	if rows[0].Nome != "Bruno" || rows[1].Nome != "Alice" {
		t.Fatalf("tie order not preserved: %+v", rows)
	}
}

func TestSummaryCSV(t *testing.T) {
	text := SummaryCSV([]SummaryRow{
		{Nome: "Maria", OrderCount: 3, CarneExtraTotal: 3},
		{Nome: "Joao", OrderCount: 2, CarneExtraTotal: 0},
	})
	want := SummaryCSVHeader + "\nMaria;3;3\nJoao;2;0\n"
	if text != want {
		t.Fatalf("unexpected summary csv:\n got %q\nwant %q", text, want)
	}
}
