package executor

import (
	"fmt"

	"sandboxd/internal/config"
)

// bootstrapFor returns the argv and extra environment needed to launch a
// child speaking the C1 protocol for language, honoring the env overrides
// spec §6 requires (PYTHONUNBUFFERED for python, a no-warnings flag for
// node-backed javascript/typescript children).
func bootstrapFor(language config.Language, pc config.PoolConfig) ([]string, []string, error) {
	switch language {
	case config.LanguagePython:
		return []string{"-u", "-c", pythonBootstrap}, []string{"PYTHONUNBUFFERED=1"}, nil
	case config.LanguageJavaScript:
		return []string{"--no-warnings", "-e", javascriptBootstrap}, nil, nil
	case config.LanguageTypeScript:
		return []string{"--no-warnings", "-e", typescriptBootstrap}, nil, nil
	default:
		return nil, nil, fmt.Errorf("executor: unsupported language %q", language)
	}
}

// pythonBootstrap is the child program for the python pool. It reads one
// JSON request per line, executes the code in a persistent namespace
// shared across requests within the same child (so a later execution can
// see an earlier one's definitions, matching a REPL-like execution
// context), and returns the captured stdout/stderr in the result. The
// code runs as statements, so the value of a trailing expression is not
// captured, and the outputs list is always empty.
//
// This is a source string handed to `python3 -c`, not a file shipped with
// this repository; it is the protocol child itself (spec §6 "Executor
// child contracts" — the control plane does not embed interpreters, it
// only spawns them, but it must still supply the executor program).
const pythonBootstrap = `
import sys, json, io, contextlib, traceback

print(json.dumps({"status": "ready"}), flush=True)
_ns = {}

for line in sys.stdin:
    line = line.strip()
    if not line:
        continue
    req = json.loads(line)
    out, err = io.StringIO(), io.StringIO()
    outputs = []
    error = None
    success = True
    try:
        with contextlib.redirect_stdout(out), contextlib.redirect_stderr(err):
            exec(compile(req["code"], "<cell>", "exec"), _ns)
    except Exception as e:
        success = False
        error = {
            "ename": type(e).__name__,
            "evalue": str(e),
            "traceback": traceback.format_exception(type(e), e, e.__traceback__),
        }
    result = {
        "stdout": out.getvalue(),
        "stderr": err.getvalue(),
        "success": success,
        "executionId": req["executionId"],
        "outputs": outputs,
    }
    if error is not None:
        result["error"] = error
    print(json.dumps(result), flush=True)
`

// javascriptBootstrap mirrors pythonBootstrap for node, evaluating each
// request's code with 'vm' against a persistent sandbox context.
const javascriptBootstrap = `
const vm = require('vm');
const readline = require('readline');

process.stdout.write(JSON.stringify({status: "ready"}) + "\n");

const sandbox = {console};
vm.createContext(sandbox);

const rl = readline.createInterface({input: process.stdin, terminal: false});
rl.on('line', (line) => {
  line = line.trim();
  if (!line) return;
  const req = JSON.parse(line);
  let success = true, error = null;
  let stdoutBuf = "";
  const origLog = console.log;
  sandbox.console = {log: (...args) => { stdoutBuf += args.join(" ") + "\n"; }};
  try {
    vm.runInContext(req.code, sandbox, {timeout: 30000});
  } catch (e) {
    success = false;
    error = {ename: e.name, evalue: e.message, traceback: (e.stack || "").split("\n")};
  }
  const result = {
    stdout: stdoutBuf,
    stderr: "",
    success,
    executionId: req.executionId,
    outputs: [],
  };
  if (error) result.error = error;
  process.stdout.write(JSON.stringify(result) + "\n");
});
`

// typescriptBootstrap transpiles each request's source (ES2020, CommonJS)
// before evaluating it, per spec §4.1: "For the typescript executor,
// source text is first transpiled ... then evaluated in a sandboxed
// evaluation context whose return value, if any, is appended as either a
// json output ... or a text output".
const typescriptBootstrap = `
const vm = require('vm');
const readline = require('readline');
const ts = require('typescript');

process.stdout.write(JSON.stringify({status: "ready"}) + "\n");

const sandbox = {console};
vm.createContext(sandbox);

const rl = readline.createInterface({input: process.stdin, terminal: false});
rl.on('line', (line) => {
  line = line.trim();
  if (!line) return;
  const req = JSON.parse(line);
  let success = true, error = null, outputs = [];
  let stdoutBuf = "";
  sandbox.console = {log: (...args) => { stdoutBuf += args.join(" ") + "\n"; }};
  try {
    const js = ts.transpileModule(req.code, {
      compilerOptions: {target: ts.ScriptTarget.ES2020, module: ts.ModuleKind.CommonJS},
    }).outputText;
    const value = vm.runInContext(js, sandbox, {timeout: 30000});
    if (value !== undefined) {
      if (typeof value === "object") {
        outputs.push({type: "json", data: JSON.stringify(value)});
      } else {
        outputs.push({type: "text", data: JSON.stringify(String(value))});
      }
    }
  } catch (e) {
    success = false;
    error = {ename: e.name || "Error", evalue: e.message, traceback: (e.stack || "").split("\n")};
  }
  const result = {
    stdout: stdoutBuf,
    stderr: "",
    success,
    executionId: req.executionId,
    outputs,
  };
  if (error) result.error = error;
  process.stdout.write(JSON.stringify(result) + "\n");
});
`
