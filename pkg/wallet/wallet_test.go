package wallet

import (
	"strings"
	"testing"
)

func TestDeriveAddress_IsDeterministic(t *testing.T) {
	deriver := NewKeccakDeriver()

	first, err := deriver.DeriveAddress("0xdeadbeefcafe")
	if err != nil {
		t.Fatalf("DeriveAddress returned error: %v", err)
	}
	second, err := deriver.DeriveAddress("deadbeefcafe")
	if err != nil {
		t.Fatalf("DeriveAddress returned error: %v", err)
	}
	if first != second {
		t.Fatalf("expected 0x-prefixed and bare key material to derive the same address, got %q and %q", first, second)
	}
}

func TestDeriveAddress_Format(t *testing.T) {
	deriver := NewKeccakDeriver()

	addr, err := deriver.DeriveAddress("0102030405060708090a0b0c0d0e0f10")
	if err != nil {
		t.Fatalf("DeriveAddress returned error: %v", err)
	}
	if !strings.HasPrefix(addr, "0x") {
		t.Fatalf("expected 0x prefix, got %q", addr)
	}
	if len(addr) != 42 {
		t.Fatalf("expected 20-byte hex address (42 chars), got %d chars", len(addr))
	}
}

func TestDeriveAddress_DistinctKeysDistinctAddresses(t *testing.T) {
	deriver := NewKeccakDeriver()

	sender, err := deriver.DeriveAddress("11")
	if err != nil {
		t.Fatalf("DeriveAddress returned error: %v", err)
	}
	receiver, err := deriver.DeriveAddress("22")
	if err != nil {
		t.Fatalf("DeriveAddress returned error: %v", err)
	}
	if sender == receiver {
		t.Fatal("expected distinct key material to derive distinct addresses")
	}
}

func TestDeriveAddress_RejectsBadMaterial(t *testing.T) {
	deriver := NewKeccakDeriver()

	if _, err := deriver.DeriveAddress("   "); err == nil {
		t.Fatal("expected error for empty key material")
	}
	if _, err := deriver.DeriveAddress("not-hex"); err == nil {
		t.Fatal("expected error for non-hex key material")
	}
}
