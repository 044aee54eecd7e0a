package filter

import (
	"testing"

	"github.com/openlvm/devid/pkg/identity"
)

func TestChainRunPassesWhenAllStagesPass(t *testing.T) {
	c := NewChain()
	c.AddStage(StageSysfsReadable, identity.FilterUnreadable, func(*identity.Dev) bool { return true })
	dev := identity.NewDev(8, 0, 0, nil)

	if !c.Run(dev) {
		t.Fatal("chain with only passing stages should report pass")
	}
	if dev.Filtered() {
		t.Fatal("a passing device must not have any FilteredMask bits set")
	}
}

func TestChainRunMarksRejectingStage(t *testing.T) {
	c := NewChain()
	c.AddStage(StageSysfsReadable, identity.FilterUnreadable, func(*identity.Dev) bool { return false })
	dev := identity.NewDev(8, 0, 0, nil)

	if c.Run(dev) {
		t.Fatal("chain should report failure when a stage rejects")
	}
	if dev.FilteredMask&identity.FilterUnreadable == 0 {
		t.Fatal("rejecting stage should set its FilterReason bit")
	}
}

func TestChainRunEvaluatesAllStagesEvenAfterOneFails(t *testing.T) {
	c := NewChain()
	c.AddStage(StageSysfsReadable, identity.FilterUnreadable, func(*identity.Dev) bool { return false })
	c.AddStage(StageNotMultipathComponent, identity.FilterMultipathComponent, func(*identity.Dev) bool { return false })
	dev := identity.NewDev(8, 0, 0, nil)

	c.Run(dev)
	if dev.FilteredMask&identity.FilterUnreadable == 0 || dev.FilteredMask&identity.FilterMultipathComponent == 0 {
		t.Fatal("both rejecting stages should contribute their bits")
	}
}
