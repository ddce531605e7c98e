package models

import "testing"

func TestPetStateInventory(t *testing.T) {
	var p PetState

	if p.Take("apple") {
		t.Fatal("Take() on empty inventory succeeded")
	}

	p.Add("apple", 2)
	p.Add("fish", 1)
	p.Add("cake", 0)

	if got := p.Foods(); len(got) != 2 || got[0] != "apple" || got[1] != "fish" {
		t.Errorf("Foods() = %v, want [apple fish]", got)
	}

	if !p.Take("fish") {
		t.Fatal("Take(fish) failed with one in stock")
	}
	if _, ok := p.Inventory["fish"]; ok {
		t.Error("empty food entry was not removed")
	}
	if p.Take("fish") {
		t.Error("Take(fish) succeeded after stock ran out")
	}
	if p.Inventory["apple"] != 2 {
		t.Errorf("apple count = %d, want 2", p.Inventory["apple"])
	}
}
