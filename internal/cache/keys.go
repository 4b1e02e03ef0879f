package cache

// 缓存键布局。所有键强制带实体前缀，不同实体即使 id 相同也不会冲突。
// 该布局同时被离线对账工具消费，不可变更。
const (
	GlobalTimelineKey = "global:timeline"
	UsernamesKey      = "usernames"
	EmailsKey         = "emails"
	PostDirtyKey      = "post:dirty"
)

func PostMetaKey(postID string) string {
	return "post:" + postID + ":meta"
}

func PostStatsKey(postID string) string {
	return "post:" + postID + ":stats"
}

func AuthorTimelineKey(userID string) string {
	return "user:" + userID + ":timeline"
}

func HomeTimelineKey(userID string) string {
	return "user:" + userID + ":home_timeline"
}

func FollowersKey(userID string) string {
	return "user:" + userID + ":followers"
}

func FollowingsKey(userID string) string {
	return "user:" + userID + ":followings"
}

func ProfileKey(userID string) string {
	return "user:" + userID + ":profile"
}
