// Package group coordinates several live containers used together.
//
// A Group owns named items, each wrapping one reconcile container fed by a
// publication (ByPublication) or supplied by the caller (ByValue). It
// derives three barriers from the item states:
//
//   - load: every item delivered data since it last unloaded. The group
//     mirrors its items onto the optional Binder target and emits "load".
//   - unload: every item lost its data while the group was loaded. The
//     target bindings are removed and "unload" is emitted.
//   - init: every item delivered at least once. Emitted once per group.
//
// While loaded, every item update calls the item handler with the
// changeset and emits a debounced "update" on the item, "update.<name>"
// and a debounced "update" on the group. Changesets merge while a
// notification is pending.
//
// Listener, handler, hook and target calls run after the group lock is
// released, so they may call back into the group.
//
// Example:
//
//	g, err := group.New(reg, []group.Definition{
//		group.ByPublication("user", reconcile.KindRecord, "users.me"),
//		group.ByPublication("rooms", reconcile.KindCollection, "", group.WithParams("lobby")),
//	}, group.WithTarget(target))
//	if err != nil {
//		return err
//	}
//	if err := g.Loaded(ctx); err != nil {
//		return err
//	}
package group
