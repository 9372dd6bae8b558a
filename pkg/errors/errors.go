package errors

func (d Definition) Error() string {
	return d.Message
}

// Definition 表示业务错误码及默认信息。
type Definition struct {
	Details map[string]interface{}
	Code    string
	Message string
}

// WithDetails 返回带结构化细节的错误副本，客户端据此渲染可操作的提示
// （如实测距离 vs 要求半径）。
func (d Definition) WithDetails(details map[string]interface{}) Definition {
	d.Details = details
	return d
}

// 通用错误。
var (
	InvalidRequest = Definition{Code: "INVALID_REQUEST", Message: "Invalid request"}
	Unauthorized   = Definition{Code: "UNAUTHORIZED", Message: "Unauthorized"}
	InvalidUserID  = Definition{Code: "INVALID_USER_ID", Message: "Invalid user ID format"}
	RateLimited    = Definition{Code: "RATE_LIMITED", Message: "Too many requests"}
)

// 考勤打卡模块错误。
var (
	FraudRejected         = Definition{Code: "FRAUD_REJECTED", Message: "Mock location rejected"}
	OutsideFence          = Definition{Code: "OUTSIDE_FENCE", Message: "Outside gym geofence"}
	LowAccuracy           = Definition{Code: "LOW_ACCURACY", Message: "GPS accuracy below required threshold"}
	OutsideOperatingHours = Definition{Code: "OUTSIDE_OPERATING_HOURS", Message: "Outside gym operating hours"}
	NoActiveMembership    = Definition{Code: "NO_ACTIVE_MEMBERSHIP", Message: "No active membership"}
	MinimumStayNotMet     = Definition{Code: "MINIMUM_STAY_NOT_MET", Message: "Minimum stay duration not met"}
	NoEntryRecord         = Definition{Code: "NO_ENTRY_RECORD", Message: "No entry record for today"}
)

// 围栏配置模块错误。
var (
	GymNotFound        = Definition{Code: "GYM_NOT_FOUND", Message: "Gym not found"}
	FenceNotConfigured = Definition{Code: "FENCE_NOT_CONFIGURED", Message: "Geofence not configured"}
	ValidationError    = Definition{Code: "VALIDATION_ERROR", Message: "Fence configuration invalid"}
)

// 位置状态诊断模块错误。
var (
	MemberNotFound      = Definition{Code: "MEMBER_NOT_FOUND", Message: "Member not found"}
	WarningIndexInvalid = Definition{Code: "WARNING_INDEX_INVALID", Message: "Warning index invalid"}
)

// Lookup 提供错误码查询能力。
var Lookup = map[string]Definition{
	InvalidRequest.Code:        InvalidRequest,
	Unauthorized.Code:          Unauthorized,
	InvalidUserID.Code:         InvalidUserID,
	RateLimited.Code:           RateLimited,
	FraudRejected.Code:         FraudRejected,
	OutsideFence.Code:          OutsideFence,
	LowAccuracy.Code:           LowAccuracy,
	OutsideOperatingHours.Code: OutsideOperatingHours,
	NoActiveMembership.Code:    NoActiveMembership,
	MinimumStayNotMet.Code:     MinimumStayNotMet,
	NoEntryRecord.Code:         NoEntryRecord,
	GymNotFound.Code:           GymNotFound,
	FenceNotConfigured.Code:    FenceNotConfigured,
	ValidationError.Code:       ValidationError,
	MemberNotFound.Code:        MemberNotFound,
	WarningIndexInvalid.Code:   WarningIndexInvalid,
}

// Get 根据错误码返回 Definition，若不存在则返回空 Definition。
func Get(code string) Definition {
	if def, ok := Lookup[code]; ok {
		return def
	}
	return Definition{Code: code, Message: "Unexpected error"}
}

// SkipMessageError 消费者幂等跳过标记：消息已处理过，Ack 但不重试。
type SkipMessageError struct {
	Reason string
}

func (e *SkipMessageError) Error() string {
	return e.Reason
}
