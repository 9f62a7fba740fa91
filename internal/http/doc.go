// Package http provides HTTP handlers and middleware for the attendance API.
//
// The router exposes the following endpoints:
//   - GET /api/v1/zone: the configured attendance zone as
//     {"center":{"latitude","longitude"},"radius_meters"}.
//   - POST /api/v1/zone/evaluate: body {"latitude","longitude"}. Response:
//     {"distance_meters","in_zone","badge"}.
//   - POST /api/v1/attendance: body {"name","result","latitude","longitude",
//     "accuracy","captured_at","location_error"}. The position is the one the
//     client's platform reported; location_error carries the platform failure
//     (permission_denied, timeout, position_unavailable, unsupported) instead.
//     Returns 201 with the stored record.
//   - GET /api/v1/attendance: {"records","count"}, newest first.
//   - GET /api/v1/attendance/export.xlsx: the same listing as a workbook.
//   - GET /healthz: storage ping.
//   - GET /metrics: Prometheus exposition, when a handler is configured.
//
// Errors use the envelope {"error_code","title","message","errors"} with
// "reason" for LOCATION_UNAVAILABLE and "distance_meters" for OUTSIDE_ZONE.
package http
