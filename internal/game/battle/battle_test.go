package battle_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/dungeon-client/internal/game/battle"
)

const localID = "hero"

func goblin(id string, hp int) battle.Combatant {
	return battle.Combatant{ID: id, IsMonster: true, HP: hp}
}

func rival(id string, hp int) battle.Combatant {
	return battle.Combatant{ID: id, HP: hp}
}

func ids(cs []battle.Combatant) []string {
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.ID)
	}
	return out
}

func TestNewBattle_Inactive(t *testing.T) {
	b := battle.NewBattle(localID)
	assert.False(t, b.Active())
	assert.Empty(t, b.ID())
	assert.Empty(t, b.Opponents())
	_, ok := b.SelectedTarget()
	assert.False(t, ok)
}

func TestBattle_SetOpponentsIgnoredWhileInactive(t *testing.T) {
	b := battle.NewBattle(localID)
	b.SetOpponents([]battle.Combatant{goblin("g1", 5)})
	assert.Zero(t, b.Len())
}

func TestBattle_StartExcludesLocalPlayer(t *testing.T) {
	b := battle.NewBattle(localID)
	b.Start("b1", []battle.Combatant{rival(localID, 20), goblin("g1", 10)})

	require.True(t, b.Active())
	assert.Equal(t, "b1", b.ID())
	assert.Equal(t, []string{"g1"}, ids(b.Opponents()))
	sel, ok := b.SelectedTarget()
	require.True(t, ok)
	assert.Equal(t, "g1", sel)
}

func TestBattle_SetOpponentsKeepsSupplyOrder(t *testing.T) {
	b := battle.NewBattle(localID)
	b.Start("b1", nil)
	b.SetOpponents([]battle.Combatant{goblin("z", 1), goblin("a", 2), rival("m", 3)})
	assert.Equal(t, []string{"z", "a", "m"}, ids(b.Opponents()))
	sel, _ := b.SelectedTarget()
	assert.Equal(t, "z", sel)
}

func TestBattle_SetOpponentsKeepsSurvivingSelection(t *testing.T) {
	b := battle.NewBattle(localID)
	b.Start("b1", []battle.Combatant{goblin("g1", 5), goblin("g2", 5)})
	require.True(t, b.SelectTarget("g2"))

	b.SetOpponents([]battle.Combatant{goblin("g3", 5), goblin("g2", 4)})
	sel, _ := b.SelectedTarget()
	assert.Equal(t, "g2", sel)

	b.SetOpponents([]battle.Combatant{goblin("g4", 5)})
	sel, _ = b.SelectedTarget()
	assert.Equal(t, "g4", sel)
}

func TestBattle_SetOpponentsDuplicatesAndBlankIDs(t *testing.T) {
	b := battle.NewBattle(localID)
	b.Start("b1", []battle.Combatant{goblin("g1", 5), goblin("", 3), goblin("g2", 5), goblin("g1", 2)})
	assert.Equal(t, []string{"g1", "g2"}, ids(b.Opponents()))
	g1, ok := b.Opponent("g1")
	require.True(t, ok)
	assert.Equal(t, 2, g1.HP)
}

func TestBattle_SetOpponentsSingleCurrentTurn(t *testing.T) {
	b := battle.NewBattle(localID)
	b.Start("b1", []battle.Combatant{
		{ID: "a", IsCurrentTurn: true},
		{ID: "b", IsCurrentTurn: true},
	})
	a, _ := b.Opponent("a")
	bb, _ := b.Opponent("b")
	assert.True(t, a.IsCurrentTurn)
	assert.False(t, bb.IsCurrentTurn)
}

func TestBattle_NegativeHPFloorsAtZero(t *testing.T) {
	b := battle.NewBattle(localID)
	b.Start("b1", []battle.Combatant{goblin("g1", -4)})
	g, _ := b.Opponent("g1")
	assert.Equal(t, 0, g.HP)
	require.True(t, b.UpdateHP("g1", -1))
	g, _ = b.Opponent("g1")
	assert.Equal(t, 0, g.HP)
	assert.False(t, b.UpdateHP("nobody", 3))
}

func TestBattle_SelectTargetRejectsUnknown(t *testing.T) {
	b := battle.NewBattle(localID)
	b.Start("b1", []battle.Combatant{goblin("g1", 5), goblin("g2", 5)})
	assert.False(t, b.SelectTarget("ghost"))
	assert.False(t, b.SelectTarget(localID))
	sel, _ := b.SelectedTarget()
	assert.Equal(t, "g1", sel)
	assert.True(t, b.SelectTarget("g2"))
	sel, _ = b.SelectedTarget()
	assert.Equal(t, "g2", sel)
}

func TestBattle_RemoveRespectsNamespaces(t *testing.T) {
	b := battle.NewBattle(localID)
	b.Start("b1", []battle.Combatant{goblin("shade", 5), rival("bob", 9)})

	assert.False(t, b.RemovePlayer("shade"), "player death must not remove a monster")
	assert.False(t, b.RemoveMonster("bob"), "monster death must not remove a player")
	assert.Equal(t, 2, b.Len())

	assert.True(t, b.RemoveMonster("shade"))
	assert.True(t, b.RemovePlayer("bob"))
	assert.Zero(t, b.Len())
}

func TestBattle_RemoveSelectedReselects(t *testing.T) {
	b := battle.NewBattle(localID)
	b.Start("b1", []battle.Combatant{goblin("g1", 5), goblin("g2", 5), goblin("g3", 5)})
	require.True(t, b.SelectTarget("g2"))

	require.True(t, b.RemoveMonster("g2"))
	sel, ok := b.SelectedTarget()
	require.True(t, ok)
	assert.Equal(t, "g1", sel)
	assert.Equal(t, []string{"g1", "g3"}, ids(b.Opponents()))
}

func TestBattle_RemoveLastClearsSelection(t *testing.T) {
	b := battle.NewBattle(localID)
	b.Start("b1", []battle.Combatant{goblin("g1", 5)})
	require.True(t, b.RemoveMonster("g1"))
	_, ok := b.SelectedTarget()
	assert.False(t, ok)
}

func TestBattle_SetActiveTurn(t *testing.T) {
	b := battle.NewBattle(localID)
	b.Start("b1", []battle.Combatant{goblin("g1", 5), rival("bob", 5)})
	b.SetActiveTurn("bob")
	g, _ := b.Opponent("g1")
	p, _ := b.Opponent("bob")
	assert.False(t, g.IsCurrentTurn)
	assert.True(t, p.IsCurrentTurn)

	b.SetActiveTurn(localID)
	for _, c := range b.Opponents() {
		assert.False(t, c.IsCurrentTurn)
	}
}

func TestBattle_ResetClearsEverything(t *testing.T) {
	b := battle.NewBattle(localID)
	b.Start("b1", []battle.Combatant{goblin("g1", 5)})
	b.Reset()
	b.Reset()
	assert.False(t, b.Active())
	assert.Empty(t, b.ID())
	assert.Zero(t, b.Len())
	_, ok := b.SelectedTarget()
	assert.False(t, ok)
}

func TestBattle_OpponentsIsACopy(t *testing.T) {
	b := battle.NewBattle(localID)
	b.Start("b1", []battle.Combatant{goblin("g1", 5)})
	cs := b.Opponents()
	cs[0].HP = 99
	g, _ := b.Opponent("g1")
	assert.Equal(t, 5, g.HP)
}

func drawCombatants(rt *rapid.T, label string) []battle.Combatant {
	pool := []string{localID, "g1", "g2", "g3", "bob", "ann"}
	return rapid.SliceOfN(rapid.Custom(func(rt *rapid.T) battle.Combatant {
		return battle.Combatant{
			ID:            rapid.SampledFrom(pool).Draw(rt, "id"),
			IsMonster:     rapid.Bool().Draw(rt, "monster"),
			HP:            rapid.IntRange(-5, 30).Draw(rt, "hp"),
			IsCurrentTurn: rapid.Bool().Draw(rt, "turn"),
		}
	}), 0, 8).Draw(rt, label)
}

func checkInvariants(t interface {
	Errorf(string, ...any)
}, b *battle.Battle) {
	turns := 0
	for _, c := range b.Opponents() {
		if c.ID == localID {
			t.Errorf("local player %q present in roster", localID)
		}
		if c.HP < 0 {
			t.Errorf("combatant %q has negative hp %d", c.ID, c.HP)
		}
		if c.IsCurrentTurn {
			turns++
		}
	}
	if turns > 1 {
		t.Errorf("%d combatants hold the current turn", turns)
	}
	if sel, ok := b.SelectedTarget(); ok {
		if _, present := b.Opponent(sel); !present {
			t.Errorf("selected target %q is not in the roster", sel)
		}
	} else if b.Len() > 0 {
		t.Errorf("roster of %d has no selection", b.Len())
	}
	if !b.Active() && (b.Len() != 0 || b.ID() != "") {
		t.Errorf("inactive battle keeps state")
	}
}

func TestProperty_Battle_InvariantsHoldUnderAnyOperations(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		b := battle.NewBattle(localID)
		steps := rapid.IntRange(1, 30).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			switch rapid.IntRange(0, 7).Draw(rt, "op") {
			case 0:
				b.Start("b", drawCombatants(rt, "start"))
			case 1:
				b.SetOpponents(drawCombatants(rt, "roster"))
			case 2:
				b.SelectTarget(rapid.SampledFrom([]string{localID, "g1", "bob", "zzz"}).Draw(rt, "sel"))
			case 3:
				b.RemoveMonster(rapid.SampledFrom([]string{"g1", "g2", "bob"}).Draw(rt, "monster"))
			case 4:
				b.RemovePlayer(rapid.SampledFrom([]string{"g1", "bob", "ann"}).Draw(rt, "player"))
			case 5:
				b.SetActiveTurn(rapid.SampledFrom([]string{localID, "g1", "bob", ""}).Draw(rt, "active"))
			case 6:
				b.UpdateHP(rapid.SampledFrom([]string{"g1", "bob"}).Draw(rt, "hpid"), rapid.IntRange(-10, 10).Draw(rt, "hp"))
			case 7:
				b.Reset()
			}
			checkInvariants(rt, b)
		}
	})
}

func TestProperty_Battle_SelfNeverInRoster(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		b := battle.NewBattle(localID)
		b.Start("b", nil)
		list := drawCombatants(rt, "list")
		list = append(list, rival(localID, 10))
		b.SetOpponents(list)
		_, present := b.Opponent(localID)
		assert.False(rt, present)
	})
}

func TestProperty_Battle_DeathNeverLeavesDanglingSelection(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		b := battle.NewBattle(localID)
		b.Start("b", drawCombatants(rt, "roster"))
		if b.Len() == 0 {
			return
		}
		victim := rapid.SampledFrom(ids(b.Opponents())).Draw(rt, "victim")
		b.SelectTarget(victim)
		c, _ := b.Opponent(victim)
		if c.IsMonster {
			b.RemoveMonster(victim)
		} else {
			b.RemovePlayer(victim)
		}
		sel, ok := b.SelectedTarget()
		assert.NotEqual(rt, victim, sel)
		if ok {
			_, present := b.Opponent(sel)
			assert.True(rt, present)
		}
	})
}
