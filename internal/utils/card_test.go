package utils

import "testing"

func TestGenerateAccountNo(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		no, err := GenerateAccountNo()
		if err != nil {
			t.Fatalf("generate failed: %v", err)
		}
		if len(no) != 16 {
			t.Fatalf("account number %q has length %d, want 16", no, len(no))
		}
		for _, r := range no {
			if r < '0' || r > '9' {
				t.Fatalf("account number %q contains non-digit %q", no, r)
			}
		}
		seen[no] = true
	}
	if len(seen) < 90 {
		t.Fatalf("account numbers look non-random: %d distinct of 100", len(seen))
	}
}

func TestGenerateCVV(t *testing.T) {
	cvv, err := GenerateCVV()
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if len(cvv) != 3 {
		t.Fatalf("cvv %q has length %d, want 3", cvv, len(cvv))
	}
}
