/*
Package backstore exposes the forum's threads and posts as a small relational
data source.

# Query sets

Manager.Query returns a lazy QuerySet. Filter and Exclude accumulate
predicates and return clones; nothing is fetched until List, Get, Count or
Exists runs. The first evaluation fetches the entity's remote listing once and
every clone of the same lineage reuses that payload. Predicates always run
client side over the assembled records.

Supported lookups:

	pk, id       exact primary key (negated by Exclude)
	thread       posts of one thread; also selects threads/listPosts
	thread__in   posts of any of the given threads

Any other key fails with an UnsupportedLookup error.

Get returns (record, true, nil) for exactly one match, (zero, false, nil) for
none and a MultipleObjectsReturned error otherwise. Post Get by id reads
posts/details instead of the listing.

OrderBy, SelectRelated and Using are accepted and ignored.

# Updates

Manager.Update reads the stored record, diffs it field by field and
dispatches the mutation registered for every changed field:

	thread is_closed   threads/close or threads/open
	thread is_deleted  threads/remove or threads/restore
	post is_approved   posts/approve (false to true only)
	post is_spam       posts/spam (false to true only)
	post is_deleted    posts/remove (false to true only)
	post message       posts/update

Any other change fails with UnsupportedMutation before a remote call is made.
Mutation tables are checked at construction: every non key field must be
either mutable or listed as unsupported.

# Deletes

Delete and DeleteMany remove records remotely. Deleting a thread does not
cascade; callers collect dependent posts with thread__in and remove them with
DeleteMany first.
*/
package backstore
