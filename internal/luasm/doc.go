// Package luasm runs state-machine modules written in Lua.
//
// A script declares its ports through the global `sm` table while it loads,
// and the declarations go through the same module.Builder native modules
// use, so a Lua module is indistinguishable from a compiled one once loaded:
//
//	local out = sm.output("value")
//
//	sm.entry("init", function(data)
//	  out(sm.pack_u32le(33))
//	end)
//
//	sm.input("value", function(data)
//	  local v = sm.u32le(data)
//	  if v == nil then
//	    return false, "short message"
//	  end
//	  sm.info("got " .. v)
//	end)
//
// # Sandbox
//
// Scripts run in a state that only has the base, string, table, math and
// bit32 libraries. dofile, loadfile, load and require are unavailable, and
// print writes to the invocation logger instead of stdout.
//
// # Results
//
// A handler that returns nothing, nil or true succeeds. A string return
// value is a reply. `false, reason` is a failure, as is any runtime error
// raised by the handler.
//
// # Concurrency
//
// A Lua state is single-threaded. Invocations of one Lua module are
// serialized; different Lua modules run independently.
package luasm
