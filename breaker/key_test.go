package breaker

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecordKey(t *testing.T) {
	tenant := &Ref{Type: "tenant", ID: "42"}
	account := &Ref{Type: "mail_account", ID: "a-7"}

	cases := []struct {
		name   string
		id     Identity
		prefix string
		want   string
	}{
		{
			name: "global",
			id:   Identity{Name: "mail.send"},
			want: "mail.send",
		},
		{
			name:   "global with prefix",
			id:     Identity{Name: "mail.send"},
			prefix: "myapp:breaker:",
			want:   "myapp:breaker:mail.send",
		},
		{
			name: "context only",
			id:   Identity{Name: "mail.send", Scope: Scope{Context: tenant}},
			want: "tenant:42:mail.send",
		},
		{
			name: "boundary only",
			id:   Identity{Name: "mail.send", Scope: Scope{Boundary: account}},
			want: "mail_account:a-7:mail.send",
		},
		{
			name: "dual scope",
			id:   Identity{Name: "mail.send", Scope: Scope{Context: tenant, Boundary: account}},
			want: "tenant:42:mail_account:a-7:mail.send",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.id.recordKey(tc.prefix))
		})
	}
}

func TestAttributeKey(t *testing.T) {
	id := Identity{Name: "x", Scope: Scope{Context: &Ref{Type: "tenant", ID: "1"}}}
	assert.Equal(t, "tenant:1:x:state", id.attributeKey("", attrState))
	assert.Equal(t, "p:tenant:1:x:metrics", id.attributeKey("p:", attrMetrics))
}

func TestScopeEquality(t *testing.T) {
	a := Scope{Context: &Ref{Type: "tenant", ID: "1"}}
	b := Scope{Context: &Ref{Type: "tenant", ID: "1"}}
	c := Scope{Context: &Ref{Type: "tenant", ID: "2"}}

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(Scope{}))
	assert.True(t, Scope{}.Equal(Scope{}))
	assert.True(t, Scope{}.IsGlobal())
	assert.False(t, a.IsGlobal())

	// Context 与 Boundary 是有序对，不可交换
	ctx := Scope{Context: &Ref{Type: "t", ID: "1"}}
	bnd := Scope{Boundary: &Ref{Type: "t", ID: "1"}}
	assert.False(t, ctx.Equal(bnd))
}

func TestStatePredicates(t *testing.T) {
	assert.True(t, StateClosed.IsClosed())
	assert.True(t, StateClosed.CanAttemptRequest())
	assert.False(t, StateClosed.ShouldRejectRequest())

	assert.True(t, StateOpen.IsOpen())
	assert.False(t, StateOpen.CanAttemptRequest())
	assert.True(t, StateOpen.ShouldRejectRequest())

	assert.True(t, StateHalfOpen.IsHalfOpen())
	assert.True(t, StateHalfOpen.CanAttemptRequest())
	assert.False(t, StateHalfOpen.ShouldRejectRequest())

	assert.Equal(t, StateOpen, parseState("open"))
	assert.Equal(t, StateHalfOpen, parseState("half_open"))
	assert.Equal(t, StateClosed, parseState("closed"))
	assert.Equal(t, StateClosed, parseState("garbage"))
}

func TestMorphPolicy(t *testing.T) {
	settings := &Settings{
		MorphKeyMap:                map[string]string{"tenant": MorphKindInt, "org": MorphKindUUID},
		EnforceMorphKeyMap:         true,
		BoundaryMorphKeyMap:        map[string]string{"mail_account": MorphKindString},
		EnforceBoundaryMorphKeyMap: false,
	}
	p := newMorphPolicy(settings)

	// 已映射且类别匹配
	assert.NoError(t, p.validateContext(&Ref{Type: "tenant", ID: "42"}))
	assert.NoError(t, p.validateContext(&Ref{Type: "org", ID: "0190d4f0-7b3f-7c4e-9a4e-2f94b9d7a111"}))

	// 未映射的类型标签
	err := p.validateContext(&Ref{Type: "user", ID: "1"})
	assert.ErrorIs(t, err, ErrMorphKeyViolation)

	// 类别不匹配
	err = p.validateContext(&Ref{Type: "tenant", ID: "not-a-number"})
	assert.ErrorIs(t, err, ErrMorphKeyViolation)

	// nil 引用始终合法
	assert.NoError(t, p.validateContext(nil))

	// Boundary 侧独立：未启用强制时未映射也合法
	assert.NoError(t, p.validateBoundary(&Ref{Type: "whatever", ID: "x"}))
}

func TestMatchesKind(t *testing.T) {
	assert.True(t, matchesKind("123", MorphKindInt))
	assert.False(t, matchesKind("", MorphKindInt))
	assert.False(t, matchesKind("12a", MorphKindInt))

	assert.True(t, matchesKind("0190d4f0-7b3f-7c4e-9a4e-2f94b9d7a111", MorphKindUUID))
	assert.False(t, matchesKind("nope", MorphKindUUID))

	assert.True(t, matchesKind("01HZY3T5V9MPXW9GQ2B8KZJ4RD", MorphKindULID))
	assert.False(t, matchesKind("nope", MorphKindULID))

	assert.True(t, matchesKind("anything", MorphKindString))
	assert.False(t, matchesKind("", MorphKindString))
}
