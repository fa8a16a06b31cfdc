package core

import "testing"

func TestIsValidPoolId(t *testing.T) {
	valid := []string{"default", "pool-1", "pool_2", "A1"}
	for _, s := range valid {
		if !IsValidPoolId(s) {
			t.Errorf("expected %q to be a valid pool id", s)
		}
	}
	invalid := []string{"", "has a space", "has:colon", "toolong" + string(make([]byte, 65))}
	for _, s := range invalid {
		if IsValidPoolId(s) {
			t.Errorf("expected %q to be an invalid pool id", s)
		}
	}
}

func TestMakeAndParseStorageKey(t *testing.T) {
	key := MakeStorageKey("mypool", "abcd1234")
	if key != "mypool:abcd1234" {
		t.Fatalf("unexpected key: %q", key)
	}
	pool, hexId := ParseStorageKey(key)
	if pool != "mypool" || hexId != "abcd1234" {
		t.Fatalf("parse mismatch: pool=%q hexId=%q", pool, hexId)
	}
}

func TestMakeStorageKeyEmptyPool(t *testing.T) {
	key := MakeStorageKey("", "abcd1234")
	if key != "abcd1234" {
		t.Fatalf("expected unprefixed key, got %q", key)
	}
	pool, hexId := ParseStorageKey(key)
	if pool != "" || hexId != "abcd1234" {
		t.Fatalf("expected no pool prefix, got pool=%q hexId=%q", pool, hexId)
	}
}
