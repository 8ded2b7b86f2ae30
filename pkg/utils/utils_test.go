package utils

import "testing"

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		input    uint64
		expected string
	}{
		{0, "0"},
		{123, "123"},
		{1234, "1,234"},
		{1234567, "1,234,567"},
	}

	for _, test := range tests {
		result := FormatNumber(test.input)
		if result != test.expected {
			t.Errorf("FormatNumber(%d) = %s; expected %s", test.input, result, test.expected)
		}
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		input    uint64
		expected string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{250000, "244.1 KiB"},
		{5 * 1024 * 1024, "5.0 MiB"},
	}

	for _, test := range tests {
		result := FormatBytes(test.input)
		if result != test.expected {
			t.Errorf("FormatBytes(%d) = %s; expected %s", test.input, result, test.expected)
		}
	}
}

func TestSortByCount(t *testing.T) {
	input := map[string]uint64{
		"send":            100,
		"undersized":      50,
		"oversized":       200,
		"transport_close": 50,
	}

	result := SortByCount(input)

	// Count descending, ties broken by key
	expected := []KeyCount{
		{Key: "oversized", Count: 200},
		{Key: "send", Count: 100},
		{Key: "transport_close", Count: 50},
		{Key: "undersized", Count: 50},
	}

	if len(result) != len(expected) {
		t.Fatalf("Expected %d items, got %d", len(expected), len(result))
	}

	for i, exp := range expected {
		if result[i] != exp {
			t.Errorf("At index %d: expected %+v, got %+v", i, exp, result[i])
		}
	}
}
