package strategy

import (
	"github.com/albertocavalcante/go-simdplan/platform"
	"github.com/albertocavalcante/go-simdplan/variant"
)

// Input is everything a rule may inspect.
type Input struct {
	Key       platform.Key
	Flags     FlagSet
	Overrides Overrides
}

// Rule is one step of the ordered decision procedure. Match returns the
// selected strategy and true when the rule applies. An error aborts the
// resolution.
type Rule struct {
	Name  string
	Match func(Input) (variant.Tag, bool, error)
}

// Rule names of DefaultRules, in evaluation order.
const (
	RuleUserStrategy     = "user-strategy"
	RuleCompilerIdentity = "compiler-identity"
	RuleAMD64ASM         = "amd64-asm"
	RuleX86Intrinsics    = "x86-intrinsics"
	RuleNEONIntrinsics   = "neon-intrinsics"
	RulePortable         = "portable"
)

// DefaultRules returns the decision procedure. The first matching rule wins;
// the order prefers hand-written assembly over intrinsics over the portable
// build. The final rule always matches.
func DefaultRules() []Rule {
	return []Rule{
		{Name: RuleUserStrategy, Match: matchUserStrategy},
		{Name: RuleCompilerIdentity, Match: matchCompilerIdentity},
		{Name: RuleAMD64ASM, Match: matchAMD64},
		{Name: RuleX86Intrinsics, Match: matchX86},
		{Name: RuleNEONIntrinsics, Match: matchNEON},
		{Name: RulePortable, Match: matchPortable},
	}
}

func matchUserStrategy(in Input) (variant.Tag, bool, error) {
	if in.Overrides.Strategy == "" {
		return variant.None, false, nil
	}
	tag, err := variant.ParseTag(in.Overrides.Strategy)
	if err != nil {
		return variant.None, false, &FatalError{
			Err:      ErrUnknownStrategy,
			Value:    in.Overrides.Strategy,
			Rule:     RuleUserStrategy,
			OS:       in.Key.OS(),
			Frontend: in.Key.Frontend(),
		}
	}
	return tag, true, nil
}

func matchCompilerIdentity(in Input) (variant.Tag, bool, error) {
	tag, ok := in.Key.ExplicitOverride()
	return tag, ok, nil
}

func matchAMD64(in Input) (variant.Tag, bool, error) {
	return variant.AMD64ASM, in.Key.Arch() == platform.ArchAMD64, nil
}

func matchX86(in Input) (variant.Tag, bool, error) {
	ok := in.Key.Arch() == platform.ArchX86 && in.Flags.HasAll(variant.X86Capabilities()...)
	return variant.X86Intrinsics, ok, nil
}

// 64-bit ARM mandates NEON, so only 32-bit targets need an enabling flag.
func matchNEON(in Input) (variant.Tag, bool, error) {
	eligible := in.Key.Arch() == platform.ArchARMv8 || in.Key.NEONABI() || in.Overrides.UseNEONIntrinsics
	supported := in.Flags.Has(variant.NEON) || in.Key.PointerWidth() == 64
	return variant.NEONIntrinsics, eligible && supported, nil
}

func matchPortable(Input) (variant.Tag, bool, error) {
	return variant.None, true, nil
}
