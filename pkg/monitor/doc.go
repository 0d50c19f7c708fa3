/*
Package monitor keeps the name table synchronized with the container
runtime.

The monitor works in two phases. Bootstrap seeds static records and every
currently running container (honoring the optional network filter). The
streaming phase then consumes container lifecycle events for the life of
the process:

	start    inspect the container, add each resolvable record
	die      inspect (stale name data is sufficient), remove each record
	rename   migrate the table key using the event's actor attributes

The event subscription is established before bootstrap runs, so transitions
during the catch-up read are buffered rather than lost. Failures while
processing a single event are logged and counted; they never terminate the
stream consumer. A die whose inspection fails leaves a stale entry until a
later event for the same name corrects it.

Derived names strip characters outside [A-Za-z0-9_.-] and get the base
domain appended, so container "web" under domain "docker" resolves as
"web.docker".
*/
package monitor
