package driveauth

// Identity is who is making a request: an email address bound to a
// token, or the Public sentinel when the token is absent or unknown.
type Identity string

// Public is the identity of unauthenticated requests.
const Public Identity = "public"

// Level is a permission level. Levels are ordered: holding a level
// implies every level below it at the same path.
type Level int

const (
	LevelRead Level = iota + 1
	LevelWrite
	LevelManage
	LevelOwn
)

var levelNames = map[Level]string{
	LevelRead:   "read",
	LevelWrite:  "write",
	LevelManage: "manage",
	LevelOwn:    "own",
}

func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return "unknown"
}

// ParseLevel returns the level named by s, or false if s does not name
// a level.
func ParseLevel(s string) (Level, bool) {
	for l, name := range levelNames {
		if name == s {
			return l, true
		}
	}
	return 0, false
}

// ACL holds the access-control entries explicitly set at a single
// path. A false cell is an explicit revocation that masks grants
// inherited from ancestor paths, which is why the maps keep false
// values instead of deleting the keys.
type ACL struct {
	Readers  map[Identity]bool `json:"readers,omitempty"`
	Writers  map[Identity]bool `json:"writers,omitempty"`
	Managers map[Identity]bool `json:"managers,omitempty"`
	Owners   map[Identity]bool `json:"owners,omitempty"`
}

func (a ACL) entries(level Level) map[Identity]bool {
	switch level {
	case LevelRead:
		return a.Readers
	case LevelWrite:
		return a.Writers
	case LevelManage:
		return a.Managers
	case LevelOwn:
		return a.Owners
	}
	return nil
}

// Set writes a single identity/level cell, creating the map if needed.
func (a *ACL) Set(ident Identity, level Level, granted bool) {
	entries := a.entries(level)
	if entries == nil {
		entries = make(map[Identity]bool)
		switch level {
		case LevelRead:
			a.Readers = entries
		case LevelWrite:
			a.Writers = entries
		case LevelManage:
			a.Managers = entries
		case LevelOwn:
			a.Owners = entries
		}
	}
	entries[ident] = granted
}

// Overlay copies every cell explicitly present in other onto a,
// cell by cell. False cells overwrite too: a deeper revocation masks
// an ancestor grant.
func (a *ACL) Overlay(other ACL) {
	for _, level := range []Level{LevelRead, LevelWrite, LevelManage, LevelOwn} {
		for ident, granted := range other.entries(level) {
			a.Set(ident, level, granted)
		}
	}
}

// Granted reports whether ident holds level at this ACL, directly or
// through a higher level.
func (a ACL) Granted(ident Identity, level Level) bool {
	for l := level; l <= LevelOwn; l++ {
		if a.entries(l)[ident] {
			return true
		}
	}
	return false
}

// Scope is the set of capabilities a delegated token carries at a
// path.
type Scope struct {
	Read   bool `json:"read,omitempty"`
	Write  bool `json:"write,omitempty"`
	Manage bool `json:"manage,omitempty"`
	Own    bool `json:"own,omitempty"`
}

// Allows reports whether the scope covers level, directly or through
// a higher capability.
func (s Scope) Allows(level Level) bool {
	switch level {
	case LevelRead:
		return s.Read || s.Write || s.Manage || s.Own
	case LevelWrite:
		return s.Write || s.Manage || s.Own
	case LevelManage:
		return s.Manage || s.Own
	case LevelOwn:
		return s.Own
	}
	return false
}

// Merge ORs the true capabilities of other into s.
func (s *Scope) Merge(other Scope) {
	s.Read = s.Read || other.Read
	s.Write = s.Write || other.Write
	s.Manage = s.Manage || other.Manage
	s.Own = s.Own || other.Own
}

// TypeIdentity marks a token that asserts an identity with no
// capability restriction of its own. Any other token is delegated and
// carries an explicit perms map.
const TypeIdentity = "identity"

// Token is the stored record behind an opaque bearer string.
type Token struct {
	Type  string           `json:"type,omitempty"`
	Email string           `json:"email"`
	Perms map[string]Scope `json:"perms,omitempty"`
}

// IsIdentity reports whether the token is an identity token, i.e. not
// capability-limited at the token layer.
func (t Token) IsIdentity() bool {
	return t.Type == TypeIdentity
}

func (t Token) Identity() Identity {
	return Identity(t.Email)
}

// Event is a change notification pushed through the router on
// mutating operations.
type Event struct {
	Type string `json:"type"`
	Path string `json:"path"`
}

const (
	EventCreate = "create"
	EventUpdate = "update"
	EventDelete = "delete"
)

// PermissionRepository persists the permission tree as a whole
// document keyed by path string. Load returns an empty map when
// nothing has been persisted yet; a present-but-unreadable store is an
// error.
type PermissionRepository interface {
	Load() (map[string]ACL, error)
	Save(map[string]ACL) error
}

// TokenRepository persists the token table as a whole document keyed
// by the opaque token string.
type TokenRepository interface {
	Load() (map[string]Token, error)
	Save(map[string]Token) error
}
