/*
Package runtime wraps the Docker Engine API behind the small capability set
docker-dns needs: list running containers, stream lifecycle events, and
inspect a container by id.

The Runtime interface exists so the monitor can be tested against a fake;
DockerRuntime is the only production implementation. Event subscription is
filtered to type=container on the daemon side, keeping image, network, and
volume events off the wire entirely.
*/
package runtime
