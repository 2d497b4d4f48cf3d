package session

import (
	"net/http"
	"testing"
)

func TestCookieJar_String(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		jar  CookieJar
		want string
	}{
		{name: "nil", jar: nil, want: ""},
		{name: "single", jar: CookieJar{{Name: "ASP.NET_SessionId", Value: "abc"}}, want: "ASP.NET_SessionId=abc"},
		{
			name: "multiple keeps order",
			jar:  CookieJar{{Name: "b", Value: "2"}, {Name: "a", Value: "1"}},
			want: "b=2; a=1",
		},
		{name: "nil entries skipped", jar: CookieJar{nil, {Name: "a", Value: "1"}}, want: "a=1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.jar.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCookieJar_CloneIsDeep(t *testing.T) {
	t.Parallel()

	orig := CookieJar{{Name: "sid", Value: "one", Path: "/"}}
	clone := orig.Clone()
	clone[0].Value = "two"

	if orig[0].Value != "one" {
		t.Errorf("original mutated through clone: %q", orig[0].Value)
	}
	if !orig.Equal(CookieJar{{Name: "sid", Value: "one"}}) {
		t.Error("Equal() should compare name/value pairs only")
	}
}

func TestCookieJar_Empty(t *testing.T) {
	t.Parallel()

	if !CookieJar(nil).Empty() {
		t.Error("nil jar should be empty")
	}
	if (CookieJar{&http.Cookie{Name: "a", Value: "b"}}).Empty() {
		t.Error("jar with a cookie should not be empty")
	}
}

func TestNewID_Unique(t *testing.T) {
	t.Parallel()

	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		id := NewID()
		if len(id) != 36 {
			t.Fatalf("NewID() = %q, want 36-char UUID", id)
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = struct{}{}
	}
}
