package internal

/*
	lister --> resolves folder keys under the base directory and lists them.
	watcher --> watches the configured roots and hands change events to a sink.
	generator --> fills a folder with numbered files, handy to watch the UI react.

	** Usage
	1 - create a lister over the base directory, derive roots from the folder keys.
	2 - start a watcher over those roots with any EventSink (the hub registry in the server).
*/
