package generr

type mErr struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

var (
	ParseParam   = &mErr{400, "参数错误"}
	Unauthorized = &mErr{401, "未授权"}
	ServerError  = &mErr{500, "服务错误"}
)

var (
	SignMiss     = &mErr{601, "s参数缺失"}
	SignNotMatch = &mErr{602, "s不匹配"}
	TimestampErr = &mErr{603, "t参数错误"}
	TimestampOut = &mErr{604, "t超时"}
	ReadDB       = &mErr{698, "读数据库错误"}
	UpdateDB     = &mErr{699, "更新数据库错误"}

	ValidationFailure = &mErr{1001, "校验失败"}
	StorageFailure    = &mErr{1002, "存储错误"}
	PackageNotFound   = &mErr{1003, "投资包不存在"}
	ReferralCodeTaken = &mErr{1004, "推荐码已存在"}
	UserNotFound      = &mErr{1005, "用户不存在"}
)

// WithMsg copies e with a detailed message.
func (e *mErr) WithMsg(msg string) *mErr {
	return &mErr{e.Code, msg}
}
