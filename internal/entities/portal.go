package entities

import (
	"encoding/json"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/udisondev/portalgo/internal/model"
	"github.com/udisondev/portalgo/internal/world"
)

// Portal volume, along the portal's forward, right and up axes.
const (
	portalHalfDepth  = 8.0
	portalHalfWidth  = 32.0
	portalHalfHeight = 56.0
)

// Portal is one end of a linked portal pair. Portals with the same linkage
// group and opposite PortalTwo flags are partners. Movers that enter an
// active portal leave through the partner, with their velocity rotated
// into the partner's frame.
type Portal struct {
	IsPortal2 bool `json:"portal2"`
	LinkageID int  `json:"linkage"`

	active bool
}

// KeyValue reads PortalTwo, LinkageGroupID and Activated.
func (p *Portal) KeyValue(e *world.Entity, key, value string) bool {
	switch strings.ToLower(key) {
	case "portaltwo":
		p.IsPortal2 = value == "1"
	case "linkagegroupid":
		n, err := strconv.Atoi(value)
		if err != nil {
			return false
		}
		p.LinkageID = n
	case "activated":
		p.active = value != "0"
	default:
		return false
	}
	return true
}

// IsActive reports whether the portal is open.
func (p *Portal) IsActive() bool { return p.active }

func (p *Portal) Precache(w *world.World, e *world.Entity) error {
	return w.PrecacheModel("models/portals/portal1.mdl")
}

func (p *Portal) Spawn(w *world.World, e *world.Entity) error {
	e.SetTrigger(true)
	p.updateBounds(e)
	return nil
}

// updateBounds sets the axis-aligned box around the rotated portal volume.
func (p *Portal) updateBounds(e *world.Entity) {
	fwd, right, up := model.AngleVectors(e.Angles())
	hx := math.Abs(fwd.X)*portalHalfDepth + math.Abs(right.X)*portalHalfWidth + math.Abs(up.X)*portalHalfHeight
	hy := math.Abs(fwd.Y)*portalHalfDepth + math.Abs(right.Y)*portalHalfWidth + math.Abs(up.Y)*portalHalfHeight
	hz := math.Abs(fwd.Z)*portalHalfDepth + math.Abs(right.Z)*portalHalfWidth + math.Abs(up.Z)*portalHalfHeight
	e.SetBounds(model.Vec(-hx, -hy, -hz), model.Vec(hx, hy, hz))
}

// Partner returns the linked portal, if one is open.
func (p *Portal) Partner(w *world.World, e *world.Entity) (*world.Entity, *Portal, bool) {
	for _, other := range w.FindByClassname(ClassPropPortal) {
		if other == e {
			continue
		}
		op, ok := world.BehaviorOf[*Portal](other)
		if !ok || !op.active || op.LinkageID != p.LinkageID || op.IsPortal2 == p.IsPortal2 {
			continue
		}
		return other, op, true
	}
	return nil, nil, false
}

// StartTouch teleports a moving entity to the partner portal.
func (p *Portal) StartTouch(w *world.World, e, other *world.Entity) {
	if !p.active || other.MoveType() == world.MoveNone {
		return
	}
	if _, isPortal := world.BehaviorOf[*Portal](other); isPortal {
		return
	}
	exit, _, ok := p.Partner(w, e)
	if !ok {
		return
	}
	p.teleport(w, e, exit, other)
}

func (p *Portal) EndTouch(w *world.World, e, other *world.Entity) {}

// teleport moves ent out of the partner portal. The entity leaves along the
// partner's center line, far enough out that it does not touch the partner.
func (p *Portal) teleport(w *world.World, in, out, ent *world.Entity) {
	inF, inR, inU := model.AngleVectors(in.Angles())
	outF, outR, outU := model.AngleVectors(out.Angles())

	// Rotate by 180° about up: what goes in the front comes out the front.
	transform := func(v model.Vector) model.Vector {
		a, b, c := v.Dot(inF), v.Dot(inR), v.Dot(inU)
		return outF.Scale(-a).Add(outR.Scale(-b)).Add(outU.Scale(c))
	}

	omin, omax := out.Bounds()
	emin, emax := ent.Bounds()
	reach := omax.Sub(omin).Length()/2 + emax.Sub(emin).Length()/2 + 1

	vel := transform(ent.Velocity())
	ent.SetOrigin(out.Origin().Add(outF.Scale(reach)))
	ent.SetVelocity(vel)

	ang := ent.Angles()
	ang.Yaw += out.Angles().Yaw - in.Angles().Yaw + 180
	ang.Yaw = math.Mod(ang.Yaw+360, 360)
	ent.SetAngles(ang)

	slog.Debug("entity teleported through portal",
		"entity", ent.ID(),
		"classname", ent.Classname(),
		"from", in.ID(),
		"to", out.ID())

	w.NotifySystemEvent(ent, world.SystemEvent{Type: world.EventTeleport, Source: in})
	w.FireOutput(in, "OnEntityTeleportFromMe", ent)
	w.FireOutput(out, "OnEntityTeleportToMe", ent)
}

// AcceptInput handles SetActivatedState and Fizzle.
func (p *Portal) AcceptInput(w *world.World, e *world.Entity, input string, activator *world.Entity, param string) bool {
	switch strings.ToLower(input) {
	case "setactivatedstate":
		p.active = param != "0"
	case "fizzle":
		p.active = false
	default:
		return false
	}
	return true
}

type portalState struct {
	Portal
	Active bool `json:"active"`
}

func (p *Portal) SaveState() ([]byte, error) {
	return json.Marshal(portalState{Portal: *p, Active: p.active})
}

func (p *Portal) RestoreState(data []byte) error {
	var st portalState
	if err := json.Unmarshal(data, &st); err != nil {
		return err
	}
	*p = st.Portal
	p.active = st.Active
	return nil
}
