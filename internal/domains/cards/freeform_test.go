package cards

import (
	"reflect"
	"testing"
)

func TestParseFreeformDropsDanglingName(t *testing.T) {
	got := ParseFreeform("Alice\n12345678\nBob\n")
	want := []Contact{{Name: "Alice", Number: "12345678"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected contacts: %+v", got)
	}
	if FreeformToCards("Alice\n12345678\nBob\n") != FormatCard("Alice", "12345678") {
		t.Fatal("unexpected cards for freeform input")
	}
}

func TestParseFreeformNameConsumptionAndOverride(t *testing.T) {
	text := "  Navy HQ \n\n999999\n+441234567\nOld\nNew\n+441234567\n12345\n"
	got := ParseFreeform(text)
	want := []Contact{
		{Name: "Navy HQ", Number: "999999"},
		{Name: "New", Number: "+441234567"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected contacts: %+v", got)
	}
}

func TestIsPhoneNumber(t *testing.T) {
	cases := map[string]bool{
		"123456":    true,
		"+12345":    true,
		"12345":     false,
		"++123456":  false,
		"12+3456":   false,
		"123 456 7": false,
		"+":         false,
		"١٢٣٤٥٦":    false,
	}
	for in, want := range cases {
		if got := IsPhoneNumber(in); got != want {
			t.Fatalf("IsPhoneNumber(%q)=%v want %v", in, got, want)
		}
	}
}
