package config

import (
	"os"
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	os.Setenv("HTTP_ADDR", ":8080")
	os.Setenv("ACCESS_TOKEN_SECRET", "access-secret")
	os.Setenv("REFRESH_TOKEN_SECRET", "refresh-secret")
}

func TestLoad_Defaults(t *testing.T) {
	os.Clearenv()
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg == nil {
		t.Fatal("Load returned nil config")
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":8080")
	}
	if cfg.AccessTokenTTL != "15m" {
		t.Errorf("AccessTokenTTL = %q, want %q", cfg.AccessTokenTTL, "15m")
	}
	if cfg.RefreshTokenTTL != "168h" {
		t.Errorf("RefreshTokenTTL = %q, want %q", cfg.RefreshTokenTTL, "168h")
	}
	if cfg.VerificationTokenTTL != "24h" {
		t.Errorf("VerificationTokenTTL = %q, want %q", cfg.VerificationTokenTTL, "24h")
	}
	if cfg.OTPTTL != "10m" {
		t.Errorf("OTPTTL = %q, want %q", cfg.OTPTTL, "10m")
	}
	if cfg.OTPLength != 6 {
		t.Errorf("OTPLength = %d, want 6", cfg.OTPLength)
	}
	if cfg.BcryptCost != 12 {
		t.Errorf("BcryptCost = %d, want 12", cfg.BcryptCost)
	}
	if cfg.HashWorkers != 4 {
		t.Errorf("HashWorkers = %d, want 4", cfg.HashWorkers)
	}
}

func TestLoad_EnvVarOverride(t *testing.T) {
	os.Clearenv()
	setRequired(t)
	os.Setenv("HTTP_ADDR", ":9090")
	os.Setenv("BCRYPT_COST", "14")
	os.Setenv("OTP_LENGTH", "8")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":9090" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":9090")
	}
	if cfg.BcryptCost != 14 {
		t.Errorf("BcryptCost = %d, want 14", cfg.BcryptCost)
	}
	if cfg.OTPLength != 8 {
		t.Errorf("OTPLength = %d, want 8", cfg.OTPLength)
	}
}

func TestLoad_SecretsRequired(t *testing.T) {
	os.Clearenv()
	os.Setenv("HTTP_ADDR", ":8080")

	cfg, err := Load()
	if err == nil {
		t.Fatal("Load should fail without token secrets")
	}
	if cfg != nil {
		t.Error("Load should return nil config on error")
	}
}

func TestLoad_SecretsMustDiffer(t *testing.T) {
	os.Clearenv()
	os.Setenv("HTTP_ADDR", ":8080")
	os.Setenv("ACCESS_TOKEN_SECRET", "same-secret")
	os.Setenv("REFRESH_TOKEN_SECRET", "same-secret")

	_, err := Load()
	if err == nil {
		t.Fatal("Load should fail when access and refresh secrets are equal")
	}
}

func TestLoad_BCRYPT_COSTRange(t *testing.T) {
	testCases := []struct {
		name  string
		value string
		want  int
		err   bool
	}{
		{"valid min", "4", 4, false},
		{"valid max", "31", 31, false},
		{"valid middle", "12", 12, false},
		{"too low", "3", 0, true},
		{"too high", "32", 0, true},
		{"zero", "0", 12, false}, // defaults to 12
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			os.Clearenv()
			setRequired(t)
			os.Setenv("BCRYPT_COST", tc.value)

			cfg, err := Load()
			if tc.err {
				if err == nil {
					t.Fatal("Load should return error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if cfg.BcryptCost != tc.want {
				t.Errorf("BcryptCost = %d, want %d", cfg.BcryptCost, tc.want)
			}
		})
	}
}

func TestLoad_OTPLengthRange(t *testing.T) {
	testCases := []struct {
		name  string
		value string
		want  int
		err   bool
	}{
		{"valid min", "4", 4, false},
		{"valid max", "10", 10, false},
		{"too low", "3", 0, true},
		{"too high", "11", 0, true},
		{"zero", "0", 6, false}, // defaults to 6
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			os.Clearenv()
			setRequired(t)
			os.Setenv("OTP_LENGTH", tc.value)

			cfg, err := Load()
			if tc.err {
				if err == nil {
					t.Fatal("Load should return error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if cfg.OTPLength != tc.want {
				t.Errorf("OTPLength = %d, want %d", cfg.OTPLength, tc.want)
			}
		})
	}
}

func TestAccessTTL_ValidDuration(t *testing.T) {
	os.Clearenv()
	setRequired(t)
	os.Setenv("ACCESS_TOKEN_TTL", "30m")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ttl := cfg.AccessTTL(); ttl != 30*time.Minute {
		t.Errorf("AccessTTL = %v, want %v", ttl, 30*time.Minute)
	}
}

func TestAccessTTL_InvalidDuration(t *testing.T) {
	os.Clearenv()
	setRequired(t)
	os.Setenv("ACCESS_TOKEN_TTL", "invalid")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ttl := cfg.AccessTTL(); ttl != 15*time.Minute {
		t.Errorf("AccessTTL = %v, want %v (default)", ttl, 15*time.Minute)
	}
}

func TestRefreshTTL_NegativeDuration(t *testing.T) {
	os.Clearenv()
	setRequired(t)
	os.Setenv("REFRESH_TOKEN_TTL", "-1h")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ttl := cfg.RefreshTTL(); ttl != 168*time.Hour {
		t.Errorf("RefreshTTL = %v, want %v (default)", ttl, 168*time.Hour)
	}
}

func TestVerificationTTL_ZeroMeansNoExpiry(t *testing.T) {
	os.Clearenv()
	setRequired(t)
	os.Setenv("VERIFICATION_TOKEN_TTL", "0")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ttl := cfg.VerificationTTL(); ttl != 0 {
		t.Errorf("VerificationTTL = %v, want 0 (no expiry)", ttl)
	}
}

func TestOTPExpiry_ValidDuration(t *testing.T) {
	os.Clearenv()
	setRequired(t)
	os.Setenv("OTP_TTL", "5m")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ttl := cfg.OTPExpiry(); ttl != 5*time.Minute {
		t.Errorf("OTPExpiry = %v, want %v", ttl, 5*time.Minute)
	}
}

func TestOTPExpiry_InvalidDuration(t *testing.T) {
	os.Clearenv()
	setRequired(t)
	os.Setenv("OTP_TTL", "garbage")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ttl := cfg.OTPExpiry(); ttl != 10*time.Minute {
		t.Errorf("OTPExpiry = %v, want %v (default)", ttl, 10*time.Minute)
	}
}
