package errors

import (
	"fmt"
	"testing"
)

func TestABCInfo(t *testing.T) {
	cases := map[string]struct {
		err      error
		debug    bool
		wantCode uint32
		wantLog  string
	}{
		"plain registered error": {
			err:      ErrNotFound,
			wantLog:  "not found",
			wantCode: ErrNotFound.code,
		},
		"wrapped registered error": {
			err:      Wrap(Wrap(ErrCurrency, "mint"), "vault"),
			wantLog:  "vault: mint: asset type mismatch",
			wantCode: ErrCurrency.code,
		},
		"nil is empty message": {
			err:      nil,
			wantLog:  "",
			wantCode: SuccessABCICode,
		},
		"stdlib is generic message": {
			err:      fmt.Errorf("cannot read file"),
			wantLog:  "internal error",
			wantCode: 1,
		},
		"stdlib returns error message in debug mode": {
			err:      fmt.Errorf("cannot read file"),
			debug:    true,
			wantLog:  "cannot read file",
			wantCode: 1,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			code, log := ABCIInfo(tc.err, tc.debug)
			if code != tc.wantCode {
				t.Errorf("want %d code, got %d", tc.wantCode, code)
			}
			if log != tc.wantLog {
				t.Errorf("want %q log, got %q", tc.wantLog, log)
			}
		})
	}
}

func TestRedact(t *testing.T) {
	if err := Redact(ErrPanic, false); ErrPanic.Is(err) {
		t.Error("reduct must not pass through panic error")
	}
	if err := Redact(ErrPanic, true); !ErrPanic.Is(err) {
		t.Error("reduct should pass through panic error in debug mode")
	}
	if err := Redact(ErrUnauthorized, false); !ErrUnauthorized.Is(err) {
		t.Error("registered errors must not be redacted")
	}
}

func TestABCIError(t *testing.T) {
	if err := ABCIError(SuccessABCICode, ""); err != nil {
		t.Fatalf("want no error, got %v", err)
	}

	code, log := ABCIInfo(Wrap(ErrCurrency, "vault"), false)
	err := ABCIError(code, log)
	if !ErrCurrency.Is(err) {
		t.Fatalf("want currency error, got %v", err)
	}
	if err.Error() != log {
		t.Fatalf("want %q message, got %q", log, err.Error())
	}

	if err := ABCIError(ErrNotFound.code, "not found"); err != ErrNotFound {
		t.Fatalf("want root error, got %v", err)
	}

	err = ABCIError(987654, "custom")
	if c, _ := ABCIInfo(err, false); c != 987654 {
		t.Fatalf("want code to be preserved, got %d", c)
	}
}
