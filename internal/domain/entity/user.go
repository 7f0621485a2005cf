package entity

type NotificationSettings struct {
	InApp bool `json:"in_app" firestore:"inApp"`
	Push  bool `json:"push" firestore:"push"`
}

type User struct {
	UID         string `json:"uid" firestore:"uid"`
	DisplayName string `json:"display_name" firestore:"displayName"`
	PhotoURL    string `json:"photo_url,omitempty" firestore:"photoURL,omitempty"`
	Email       string `json:"email,omitempty" firestore:"email,omitempty"`

	// Online presence
	Online   bool  `json:"online" firestore:"online"`
	LastSeen int64 `json:"last_seen" firestore:"lastSeen"`

	Followers []string `json:"followers,omitempty" firestore:"followers,omitempty"`
	Following []string `json:"following,omitempty" firestore:"following,omitempty"`

	IsAdmin    bool `json:"is_admin" firestore:"isAdmin"`
	IsPro      bool `json:"is_pro" firestore:"isPro"`
	IsMerchant bool `json:"is_merchant" firestore:"isMerchant"`

	// Absent settings mean both channels are enabled.
	NotificationSettings *NotificationSettings `json:"notification_settings,omitempty" firestore:"notificationSettings,omitempty"`
	FCMTokens            []string              `json:"-" firestore:"fcmTokens,omitempty"`
}

func (u *User) InAppNotificationsEnabled() bool {
	return u.NotificationSettings == nil || u.NotificationSettings.InApp
}

func (u *User) PushNotificationsEnabled() bool {
	return u.NotificationSettings == nil || u.NotificationSettings.Push
}
