package constants

const (
	// UserField gin 上下文中的当前用户 ID
	UserField = "_aidlink_uid"
	// UserObjField gin 上下文中的当前用户对象
	UserObjField = "_aidlink_user"
	// DbField gin 上下文中的数据库句柄
	DbField = "_aidlink_db"
	// UserIDHeader 网关注入的认证用户 ID
	UserIDHeader = "X-User-ID"
)
