package rbac

// Permission vocabulary of the ticket platform.
const (
	PermSettingsManage = "ticket-settings:manage"
	PermTicketsRead    = "tickets:read"
	PermTicketsManage  = "tickets:manage"
)

// Policy answers "may subject do perm". Subjects are usernames or
// "role:<name>" strings; the HTTP layer asks for both.
type Policy interface {
	Can(subject, perm string) bool
}

// MemoryPolicy is the in-process policy, also the test double.
type MemoryPolicy struct {
	allow map[string]map[string]bool
}

func NewMemoryPolicy() *MemoryPolicy { return &MemoryPolicy{allow: map[string]map[string]bool{}} }

func (p *MemoryPolicy) Grant(subject, perm string) {
	m := p.allow[subject]
	if m == nil {
		m = map[string]bool{}
		p.allow[subject] = m
	}
	m[perm] = true
}

func (p *MemoryPolicy) Can(subject, perm string) bool {
	if m := p.allow[subject]; m != nil {
		if m[perm] || m["*"] {
			return true
		}
	}
	return false
}

// DefaultPolicy grants the admin role everything and signed-in users the
// ticket permissions; used when no casbin policy files are configured.
func DefaultPolicy() *MemoryPolicy {
	p := NewMemoryPolicy()
	p.Grant("role:admin", "*")
	p.Grant("role:support", PermTicketsRead)
	p.Grant("role:support", PermTicketsManage)
	return p
}
