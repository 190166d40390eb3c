// Package script defines state kinds in Lua.
//
// A script declares kinds through the arbor module:
//
//	arbor.kind {
//	  name = "words",
//	  text = true,              -- mask: text payload
//	  attrs = {"lang"},         -- mask: named attributes, or "*"
//	  children = {"words"},     -- kinds read on every child
//	  update = function(node, prev, deps)
//	    local n = 0
//	    if node.text then for _ in node.text:gmatch("%S+") do n = n + 1 end end
//	    for _, c in ipairs(deps.children) do n = n + c.words end
//	    return n
//	  end,
//	}
//
// node carries kind ("element", "text" or "placeholder") plus whatever
// the mask admits: tag, text, attrs and listeners. deps has node, parent
// (nil without a parent) and children tables keyed by kind name. The
// value returned becomes the node's new value; it counts as changed when
// it differs from prev.
//
// Scripts run in a sandbox with the base, table, string and math
// libraries only, and every load and update call is bounded by a
// timeout.
package script
