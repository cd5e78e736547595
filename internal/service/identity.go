package service

// IdentityScope 区分注册用户与匿名设备
type IdentityScope string

const (
	ScopeUser   IdentityScope = "user"
	ScopeDevice IdentityScope = "dev"
)

// Identity 每次请求解析出的提交主体（二选一）
type Identity struct {
	Scope IdentityScope
	ID    string
}

func UserIdentity(id string) Identity   { return Identity{Scope: ScopeUser, ID: id} }
func DeviceIdentity(id string) Identity { return Identity{Scope: ScopeDevice, ID: id} }

func (i Identity) IsUser() bool { return i.Scope == ScopeUser }
