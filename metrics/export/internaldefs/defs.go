package internaldefs

import (
	silentauth "github.com/silentauth/silentauth"
)

// CounterDef binds one engine counter to its stable exported name.
type CounterDef struct {
	ID   silentauth.MetricID
	Name string
	Help string
}

// HistogramDef binds one engine histogram to its stable exported name.
type HistogramDef struct {
	ID   silentauth.MetricID
	Name string
	Help string
}

// CounterDefs is the full counter vocabulary shared by every exporter.
var CounterDefs = []CounterDef{
	{ID: silentauth.MetricLoginSuccess, Name: "silentauth_login_success_total", Help: "Successful credential logins."},
	{ID: silentauth.MetricLoginFailure, Name: "silentauth_login_failure_total", Help: "Rejected credential logins."},
	{ID: silentauth.MetricRegisterSuccess, Name: "silentauth_register_success_total", Help: "Created accounts."},
	{ID: silentauth.MetricRegisterDuplicate, Name: "silentauth_register_duplicate_total", Help: "Registrations rejected as duplicate."},
	{ID: silentauth.MetricRegisterFailure, Name: "silentauth_register_failure_total", Help: "Registrations rejected for validation or backend failures."},
	{ID: silentauth.MetricMint, Name: "silentauth_pairs_minted_total", Help: "Issued access+refresh pairs across all entry points."},
	{ID: silentauth.MetricValidateSuccess, Name: "silentauth_validate_success_total", Help: "Access tokens that verified."},
	{ID: silentauth.MetricValidateFailure, Name: "silentauth_validate_failure_total", Help: "Access tokens that were rejected."},
	{ID: silentauth.MetricRotateSuccess, Name: "silentauth_rotate_success_total", Help: "Refresh rotations that issued a pair."},
	{ID: silentauth.MetricRotateFailure, Name: "silentauth_rotate_failure_total", Help: "Rejected refresh rotations."},
	{ID: silentauth.MetricReplayDetected, Name: "silentauth_replay_detected_total", Help: "Rotations rejected on a revocation blacklist hit."},
	{ID: silentauth.MetricLogout, Name: "silentauth_logout_total", Help: "Logout operations."},
	{ID: silentauth.MetricLogoutRevoked, Name: "silentauth_logout_revoked_total", Help: "Logout operations that wrote a revocation entry."},
	{ID: silentauth.MetricRecoverViaAccess, Name: "silentauth_recover_via_access_total", Help: "Session recoveries resolved by the access token."},
	{ID: silentauth.MetricRecoverViaRotation, Name: "silentauth_recover_via_rotation_total", Help: "Session recoveries that fell back to refresh rotation."},
	{ID: silentauth.MetricRecoverUnauthenticated, Name: "silentauth_recover_unauthenticated_total", Help: "Session recoveries that resolved to no session."},
}

// HistogramDefs is the histogram vocabulary shared by every exporter.
var HistogramDefs = []HistogramDef{
	{ID: silentauth.MetricValidateLatency, Name: "silentauth_validate_latency_seconds", Help: "Access validation latency histogram."},
}

// HistogramBounds are the upper bounds of the engine's fixed latency buckets,
// in seconds, as Prometheus le label values.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix mirrors HistogramBounds with characters legal in
// OpenTelemetry instrument names.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets pads or truncates a raw snapshot slice to the fixed
// bucket count.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts to the cumulative form
// Prometheus histograms require.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
